package commands

import (
	"errors"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
)

// Process exit codes
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitUsage      = 2
	ExitValidation = 3
	ExitRange      = 4
)

// ExitError carries the exit code a command wants the process to end with
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a command-line usage problem
func usageError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitUsage, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
// An explicit ExitError wins; resolver errors map to their own codes.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return ExitValidation
	}

	var rangeErr *models.RangeError
	if errors.As(err, &rangeErr) {
		return ExitRange
	}

	// cobra reports unknown subcommands as plain errors
	if strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsage
	}

	return ExitFailure
}
