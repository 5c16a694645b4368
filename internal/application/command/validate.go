package command

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for command structs. Struct
// tags carry the field rules; handlers call validateCommand before any
// repository access.
var validate = validator.New()

func validateCommand(cmd interface{}) error {
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}
	return nil
}
