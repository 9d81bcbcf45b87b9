// Package errors provides structured error types for framescope operations.
package errors

import (
	"errors"
	"fmt"
	"os/exec"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// KindIO represents I/O errors.
	KindIO ErrorKind = iota
	// KindCommand represents external command execution errors.
	KindCommand
	// KindProbeParse represents ffprobe output parsing errors.
	KindProbeParse
	// KindProbe represents key frame or media probe failures.
	KindProbe
	// KindConfig represents job or configuration errors detected at construction.
	KindConfig
	// KindRange represents frame ranges or positions outside the segment.
	KindRange
	// KindOpen represents a decoder that could not be opened.
	KindOpen
	// KindDecode represents a frame that could not be decoded by any seek strategy.
	KindDecode
	// KindSeek represents a position that no seek strategy could reach.
	KindSeek
	// KindCancelled represents user-cancelled operations.
	KindCancelled
)

// String returns a string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O error"
	case KindCommand:
		return "Command error"
	case KindProbeParse:
		return "Probe parse error"
	case KindProbe:
		return "Probe error"
	case KindConfig:
		return "Configuration error"
	case KindRange:
		return "Range error"
	case KindOpen:
		return "Open error"
	case KindDecode:
		return "Decode error"
	case KindSeek:
		return "Seek error"
	case KindCancelled:
		return "Operation cancelled"
	default:
		return "Unknown error"
	}
}

// CommandErrorKind says how an external command failed.
type CommandErrorKind int

const (
	// CommandStart means the command could not be started.
	CommandStart CommandErrorKind = iota
	// CommandFailed means the command exited with a non-zero status.
	CommandFailed
)

// CommandError describes a failed ffprobe (or other tool) invocation.
type CommandError struct {
	Command    string
	Kind       CommandErrorKind
	ExitCode   int
	Stderr     string
	Underlying error
}

func (e *CommandError) Error() string {
	if e.Kind == CommandStart {
		return fmt.Sprintf("failed to execute %s: %v", e.Command, e.Underlying)
	}
	if e.Stderr == "" {
		return fmt.Sprintf("command %s failed with exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("command %s failed with exit code %d: %s", e.Command, e.ExitCode, e.Stderr)
}

func (e *CommandError) Unwrap() error {
	return e.Underlying
}

// CoreError is the main error type for framescope operations.
type CoreError struct {
	Kind       ErrorKind
	Message    string
	Underlying error
}

func (e *CoreError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target matches this error's kind.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewIOError creates a new I/O error.
func NewIOError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindIO, Message: message, Underlying: underlying}
}

func commandError(cmdErr *CommandError) *CoreError {
	return &CoreError{Kind: KindCommand, Message: cmdErr.Error(), Underlying: cmdErr}
}

// NewCommandStartError creates an error for a command that could not start.
func NewCommandStartError(cmd string, err error) *CoreError {
	return commandError(&CommandError{Command: cmd, Kind: CommandStart, Underlying: err})
}

// NewCommandFailedError creates an error for a command that exited non-zero.
func NewCommandFailedError(cmd string, exitCode int, stderr string) *CoreError {
	return commandError(&CommandError{Command: cmd, Kind: CommandFailed, ExitCode: exitCode, Stderr: stderr})
}

// NewProbeParseError creates a new ffprobe parsing error.
func NewProbeParseError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindProbeParse, Message: message, Underlying: underlying}
}

// NewProbeError creates a new probe failure error.
func NewProbeError(message string, underlying error) *CoreError {
	return &CoreError{Kind: KindProbe, Message: message, Underlying: underlying}
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string) *CoreError {
	return &CoreError{Kind: KindConfig, Message: message}
}

// NewRangeError creates a new range error.
func NewRangeError(message string) *CoreError {
	return &CoreError{Kind: KindRange, Message: message}
}

// NewOpenError creates an error for a decoder that could not be opened.
func NewOpenError(path string, underlying error) *CoreError {
	return &CoreError{Kind: KindOpen, Message: fmt.Sprintf("failed to open %s", path), Underlying: underlying}
}

// NewDecodeError creates an error for a frame that could not be decoded.
func NewDecodeError(frame int, underlying error) *CoreError {
	return &CoreError{Kind: KindDecode, Message: fmt.Sprintf("failed to decode frame %d", frame), Underlying: underlying}
}

// NewSeekError creates an error for a position no strategy could reach.
func NewSeekError(message string) *CoreError {
	return &CoreError{Kind: KindSeek, Message: message}
}

// NewCancelledError creates an error for user-cancelled operations.
func NewCancelledError() *CoreError {
	return &CoreError{Kind: KindCancelled, Message: "operation was cancelled by the user"}
}

// IsKind checks if the error has the specified kind.
func IsKind(err error, kind ErrorKind) bool {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		return coreErr.Kind == kind
	}
	return false
}

// IsCancelled checks if the error is a cancellation error.
func IsCancelled(err error) bool {
	return IsKind(err, KindCancelled)
}

// WrapExecError classifies an error from running cmd: an exit status becomes
// CommandFailed carrying stderr, anything else CommandStart.
func WrapExecError(cmd string, err error, stderr string) *CoreError {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return NewCommandFailedError(cmd, exitErr.ExitCode(), stderr)
	}
	return NewCommandStartError(cmd, err)
}
