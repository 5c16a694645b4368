package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edualert/edualert/config"
)

func testCLI() *commandLine {
	cfg := &config.Config{}
	cfg.Redis.Disabled = true
	cfg.Email.ConsoleOnly = true
	return &commandLine{
		cfg: cfg,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunWithoutCommandPrintsUsage(t *testing.T) {
	cli := testCLI()

	err := cli.run(context.Background(), []string{"edualert-admin"})
	assert.ErrorIs(t, err, errUsage)
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	cli := testCLI()

	err := cli.run(context.Background(), []string{"edualert-admin", "frobnicate"})
	assert.ErrorIs(t, err, errUsage)
}

func TestCreateAdminRequiresEmailAndName(t *testing.T) {
	cli := testCLI()

	err := cli.createAdmin(context.Background(), []string{"-email", "admin@example.com"})
	assert.ErrorIs(t, err, errUsage)

	err = cli.createAdmin(context.Background(), []string{"-name", "Ana Pop"})
	assert.ErrorIs(t, err, errUsage)
}

func TestBuildJobRejectsUnknownName(t *testing.T) {
	cli := testCLI()

	_, err := cli.buildJob("paint_the_fence", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job")
}

func TestBuildJobCoversEveryListedName(t *testing.T) {
	for _, name := range runnableJobs {
		cli := testCLI()
		job, err := cli.buildJob(name, "")
		require.NoError(t, err, name)
		assert.Equal(t, name, job.Name())
	}
}
