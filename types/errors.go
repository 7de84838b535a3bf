package types

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is(err, ErrXxx) to classify failures.
var (
	// ErrInvalidInput indicates a missing or non-directory source. No side effects yet.
	ErrInvalidInput = errors.New("invalid input")

	// ErrToolNotFound indicates the image builder executable could not be located.
	ErrToolNotFound = errors.New("tool not found")

	// ErrBuildFailure indicates the builder exited non-zero or could not start.
	ErrBuildFailure = errors.New("build failed")

	// ErrCommitFailure indicates the final rename (or the removal before it) failed.
	ErrCommitFailure = errors.New("commit failed")

	// ErrIO indicates a filesystem failure outside the builder, e.g. during size estimation.
	ErrIO = errors.New("i/o error")
)

// Error wraps an underlying error with a kind classification.
type Error struct {
	// Kind is the sentinel used for classification.
	Kind error
	// Op is the failing operation, e.g. "walk", "rename".
	Op string
	// Path is the filesystem path involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewError creates a classified error.
func NewError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// ToolNotFoundError reports that the builder executable is not available.
type ToolNotFoundError struct {
	// Name is the executable name that was searched for.
	Name string
	// Searched lists the locations that were tried, in order.
	Searched []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found. Place it next to ffpkg or in your PATH", e.Name)
}

// Is matches ErrToolNotFound.
func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

// BuildError reports a failed builder run.
// ExitCode is -1 when the process could not be started or did not exit normally.
type BuildError struct {
	ExitCode int
	Err      error
}

func (e *BuildError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("image builder failed to run: %v", e.Err)
	}
	return fmt.Sprintf("image builder exited with code %d", e.ExitCode)
}

// Unwrap returns the underlying error, if any.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is matches ErrBuildFailure.
func (e *BuildError) Is(target error) bool {
	return target == ErrBuildFailure
}

// KindOf returns a stable snake_case name for the error's kind, used as a
// metrics label and in notifications. Unclassified errors yield "unknown".
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrToolNotFound):
		return "tool_not_found"
	case errors.Is(err, ErrBuildFailure):
		return "build_failure"
	case errors.Is(err, ErrCommitFailure):
		return "commit_failure"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}
