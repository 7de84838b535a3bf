package lode

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Storage failure kinds. Match with errors.Is.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrDiskFull         = errors.New("no space left on device")
	ErrTimeout          = errors.New("operation timed out")
	// ErrThrottled is provider rate limiting (429, SlowDown).
	ErrThrottled = errors.New("rate limited")
	// ErrAuth means no usable credentials; ErrAccessDenied means valid
	// credentials without permission on the bucket or key.
	ErrAuth         = errors.New("authentication failed")
	ErrAccessDenied = errors.New("access denied")
	ErrNetwork      = errors.New("network error")
	// ErrUnclassified is the kind of storage errors matching no other kind.
	ErrUnclassified = errors.New("storage error")
)

// StorageError is a classified failure of one publish-store operation.
// The provider error stays reachable through errors.As.
type StorageError struct {
	Kind error
	// Op is "init", "write" or "read".
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches the kind as well as the wrapped chain.
func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewStorageError creates a classified storage error.
func NewStorageError(kind error, op, path string, err error) *StorageError {
	return &StorageError{Kind: kind, Op: op, Path: path, Err: err}
}

// WrapWriteError classifies a failed write. nil stays nil and an error
// that is already classified keeps its classification.
func WrapWriteError(err error, path string) error { return wrap(err, "write", path) }

// WrapReadError classifies a failed read.
func WrapReadError(err error, path string) error { return wrap(err, "read", path) }

// WrapInitError classifies a failure to open the store.
func WrapInitError(err error, target string) error { return wrap(err, "init", target) }

func wrap(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return NewStorageError(classifyError(err), op, path, err)
}

// messageRules classify provider errors by message, first match wins.
// The S3 SDK exposes little else reliably. Order matters: "access denied"
// from S3 must win over the local permission rule, and "403" must not be
// read as a not-found.
var messageRules = []struct {
	kind    error
	needles []string
}{
	{ErrAccessDenied, []string{"accessdenied", "forbidden", "403"}},
	{ErrPermissionDenied, []string{"permission denied", "eacces", "access denied"}},
	{ErrNotFound, []string{"no such file", "does not exist", "not found", "enoent", "404", "nosuchkey", "nosuchbucket"}},
	{ErrDiskFull, []string{"no space left", "disk full", "enospc", "quota exceeded"}},
	{ErrTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{ErrThrottled, []string{"slowdown", "rate exceeded", "throttl", "429", "toomanyrequests"}},
	{ErrAuth, []string{"nocredentialproviders", "credentials", "invalidaccesskeyid", "signaturedoesnotmatch", "expiredtoken", "401", "unauthorized"}},
	{ErrNetwork, []string{"connection refused", "no route to host", "network unreachable", "dns", "dial tcp"}},
}

// classifyError picks the kind for err: typed errors first, then messages.
func classifyError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.As(err, &timeoutErr) && timeoutErr.Timeout():
		return ErrTimeout
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range messageRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, needle) {
				return rule.kind
			}
		}
	}
	return ErrUnclassified
}

// kindNames are the stable log and metrics labels for each kind.
var kindNames = map[error]string{
	ErrPermissionDenied: "permission_denied",
	ErrNotFound:         "not_found",
	ErrDiskFull:         "disk_full",
	ErrTimeout:          "timeout",
	ErrThrottled:        "throttled",
	ErrAuth:             "auth",
	ErrAccessDenied:     "access_denied",
	ErrNetwork:          "network",
	ErrUnclassified:     "unclassified",
}

// KindName returns the label for a storage error, or "" if err is not one.
func KindName(err error) string {
	var se *StorageError
	if !errors.As(err, &se) {
		return ""
	}
	return kindNames[se.Kind]
}

// Hint suggests what the operator can do about a storage error.
// It returns "" when there is nothing specific to say.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "check the AWS credentials in the environment or shared config"
	case errors.Is(err, ErrAccessDenied):
		return "the credentials lack permission on the bucket or prefix"
	case errors.Is(err, ErrPermissionDenied):
		return "check write permission on publish.path"
	case errors.Is(err, ErrNotFound):
		return "check that publish.path (or the bucket) exists"
	case errors.Is(err, ErrDiskFull):
		return "free space on the publish target"
	case errors.Is(err, ErrThrottled), errors.Is(err, ErrTimeout), errors.Is(err, ErrNetwork):
		return "the store may be temporarily unavailable; try again later"
	default:
		return ""
	}
}
