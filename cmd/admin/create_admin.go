package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/edualert/edualert/internal/domain/school"
	"github.com/edualert/edualert/internal/infrastructure/persistence/postgres"
)

// readPasswordFunc is swapped out in tests.
var readPasswordFunc = term.ReadPassword

// createAdmin creates an active administrator profile. The password is
// prompted rather than taken as a flag so it stays out of shell history.
func (cli *commandLine) createAdmin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "administrator email (login identity)")
	name := fs.String("name", "", "full name")
	phone := fs.String("phone", "", "phone number (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *name == "" {
		fs.Usage()
		return errUsage
	}

	repo := postgres.NewUserProfileRepository(cli.conn)
	if existing, err := repo.GetByEmail(ctx, *email); err == nil && existing != nil {
		return fmt.Errorf("a profile with email %s already exists", *email)
	}

	fmt.Print("Password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}
	if len(pwd) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	now := time.Now().UTC()
	profile := &school.UserProfile{
		ID:          uuid.NewString(),
		FullName:    strings.TrimSpace(*name),
		Email:       strings.ToLower(strings.TrimSpace(*email)),
		PhoneNumber: strings.TrimSpace(*phone),
		Role:        school.RoleAdministrator,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := profile.SetPassword(string(pwd)); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := repo.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	cli.log.Info("administrator profile created", "id", profile.ID, "email", profile.Email)
	return nil
}
