// Package errs defines the error kinds jsvm reports and the exit codes they map to.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for reporting and exit status.
type Kind int

const (
	// Unknown is any failure that was not classified
	Unknown Kind = iota
	// Configuration is a malformed pin, manifest, hooks file or argument
	Configuration
	// NoPlatform means no toolchain is selected for the invocation
	NoPlatform
	// Network is a transport failure or unexpected HTTP status
	Network
	// VersionNotFound means the requested version does not exist upstream
	VersionNotFound
	// FileSystem is a disk or permission failure
	FileSystem
	// Execution means the child process could not be spawned
	Execution
	// ToolNotFound means no executable exists for the invoked tool
	ToolNotFound
	// NpxUnavailable means the selected npm predates npx
	NpxUnavailable
	// Migration is a failed or pending layout migration
	Migration
	// Interrupted means the user interrupted jsvm before a child started
	Interrupted
)

// Exit codes for failures that are not a child's own exit status.
const (
	ExitUnknown         = 1
	ExitConfiguration   = 2
	ExitVersionNotFound = 3
	ExitNetwork         = 4
	ExitNoPlatform      = 5
	ExitFileSystem      = 6
	ExitMigration       = 7
	ExitExecution       = 126
	ExitNotFound        = 127
	ExitInterrupted     = 130
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration error"
	case NoPlatform:
		return "no platform"
	case Network:
		return "network error"
	case VersionNotFound:
		return "version not found"
	case FileSystem:
		return "file system error"
	case Execution:
		return "execution failure"
	case ToolNotFound:
		return "tool not found"
	case NpxUnavailable:
		return "npx unavailable"
	case Migration:
		return "migration error"
	case Interrupted:
		return "interrupted"
	default:
		return "unknown error"
	}
}

// ExitCode returns the process exit code for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case Configuration:
		return ExitConfiguration
	case NoPlatform:
		return ExitNoPlatform
	case Network:
		return ExitNetwork
	case VersionNotFound:
		return ExitVersionNotFound
	case FileSystem:
		return ExitFileSystem
	case Execution:
		return ExitExecution
	case ToolNotFound, NpxUnavailable:
		return ExitNotFound
	case Migration:
		return ExitMigration
	case Interrupted:
		return ExitInterrupted
	default:
		return ExitUnknown
	}
}

// Error is a classified failure with a one-line message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err with a message. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// ExitCode returns the exit code for err, 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsNetwork reports whether err is a retryable transport failure.
func IsNetwork(err error) bool {
	return Is(err, Network)
}

// IsVersionNotFound reports whether err means the version does not exist upstream.
func IsVersionNotFound(err error) bool {
	return Is(err, VersionNotFound)
}

// Summary returns the one-line message shown by default.
func Summary(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// Causes returns the messages of every error below the summary, outermost first.
func Causes(err error) []string {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}

	var causes []string
	for cur := e.Err; cur != nil; cur = errors.Unwrap(cur) {
		msg := cur.Error()
		if next := errors.Unwrap(cur); next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		causes = append(causes, msg)
	}
	return causes
}
