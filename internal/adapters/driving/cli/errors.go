package cli

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	// ExitSkipped means a build completed but some files were skipped.
	ExitSkipped = 2
)

// ExitError carries a specific exit status with its cause.
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

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func skippedError(n int) error {
	return &ExitError{Code: ExitSkipped, Err: fmt.Errorf("%d file(s) skipped", n)}
}
