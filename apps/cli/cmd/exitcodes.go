package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/classifyprobe/packages/core/runner"
)

// Exit codes for the classifyprobe CLI
const (
	// ExitSuccess indicates every executed case passed or was inconclusive
	ExitSuccess = 0

	// ExitTestFailure indicates one or more cases failed
	ExitTestFailure = 1

	// ExitConfigError indicates an invalid config, suite or flag value
	ExitConfigError = 3

	// ExitNetworkError indicates the run was aborted by a transport error
	ExitNetworkError = 4

	// ExitAuthError indicates the run was aborted by a 401 or 403
	ExitAuthError = 5

	// ExitRoutingError indicates the run was aborted by a 404
	ExitRoutingError = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64

	// ExitInterrupted indicates the run was stopped by SIGINT or SIGTERM
	ExitInterrupted = 130
)

// ExitError carries a process exit code out of a command. A nil Err exits
// without printing anything.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func configError(err error) error {
	return &ExitError{Code: ExitConfigError, Err: err}
}

// exitCodeFor maps a finished run to its exit code.
func exitCodeFor(result *runner.RunResult) int {
	if result.Success {
		return ExitSuccess
	}
	switch result.AbortReason {
	case runner.ReasonInterrupted:
		return ExitInterrupted
	case runner.ReasonConnection, runner.ReasonTimeout:
		return ExitNetworkError
	case runner.ReasonAuthentication:
		return ExitAuthError
	case runner.ReasonNotFound:
		return ExitRoutingError
	}
	return ExitTestFailure
}

// exitCode returns the code a command error should exit with.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUsageError
}
