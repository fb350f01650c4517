package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies where in the deploy pipeline a failure happened.
type ErrorKind int

const (
	KindConfig    ErrorKind = iota + 1 // contradictory or missing request fields
	KindWorkspace                      // build directory could not be created
	KindStaging                        // chart copy, scaffold, repo add or workspace seeding failed
	KindProbe                          // cluster version query failed or was malformed
	KindExecution                      // the main helm command failed
)

// String returns the string representation of the ErrorKind.
func (k ErrorKind) String() string {
	if k <= 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

var kindNames = [...]string{
	KindConfig:    "configuration",
	KindWorkspace: "workspace",
	KindStaging:   "staging",
	KindProbe:     "probe",
	KindExecution: "execution",
}

// Error is a pipeline failure tagged with its kind. Err is the underlying
// cause and is exposed unmodified through Unwrap.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError tags err with kind. A nil err yields nil.
func NewError(kind ErrorKind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// ConfigError builds a KindConfig error from a message.
func ConfigError(format string, args ...any) error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// CommandError reports a command that ran and exited non-zero, or could not
// be started at all (ExitCode -1).
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "command %q failed", e.Command)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&sb, " with exit code %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		sb.WriteString("\nstderr: ")
		sb.WriteString(stderr)
	}
	return sb.String()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
