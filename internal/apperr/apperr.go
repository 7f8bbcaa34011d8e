// Package apperr classifies the failures a pelias invocation can end with.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes errors for reporting and exit-code mapping.
type Kind string

const (
	KindUsage             Kind = "usage"
	KindUnknownRepository Kind = "unknown_repository"
	KindUnknownSubcommand Kind = "unknown_subcommand"
	KindSyncFailure       Kind = "sync_failure"
	KindDispatchFailure   Kind = "dispatch_failure"
	KindConfig            Kind = "config"
)

// Error carries a kind, a user-facing message and the underlying cause.
// Output holds whatever the failing external command printed, if anything.
type Error struct {
	Kind     Kind
	Message  string
	Cause    error
	Output   string
	ExitCode int
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Usagef formats a usage error.
func Usagef(format string, args ...any) *Error {
	return New(KindUsage, fmt.Sprintf(format, args...), nil)
}

// WithOutput attaches command output to err and returns it.
func WithOutput(err *Error, output string) *Error {
	err.Output = strings.TrimSpace(output)
	return err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is reports whether err's chain contains an *Error of kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitCode maps err to a process exit code. Dispatch failures that carry the
// child's exit status propagate it; everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindDispatchFailure && appErr.ExitCode > 0 {
		return appErr.ExitCode
	}
	return 1
}

// CommandError reports an external command that failed, along with what it
// printed.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// OutputOf returns the captured output of the first CommandError in err's
// chain.
func OutputOf(err error) string {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Output
	}
	return ""
}
