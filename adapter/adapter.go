// Package adapter defines the notification boundary.
//
// Adapters announce build completion to downstream systems, once per build,
// success or failure. Notification failures never change the build outcome.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/types"
)

// EventTypeBuildCompleted is the only event type adapters publish.
const EventTypeBuildCompleted = "build_completed"

// Outcome values carried by BuildCompletedEvent.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// BuildCompletedEvent is the payload published when a build finishes.
type BuildCompletedEvent struct {
	ContractVersion string            `json:"contract_version"`
	EventType       string            `json:"event_type"` // always "build_completed"
	BuildID         string            `json:"build_id"`
	Source          string            `json:"source"`
	SourceDir       string            `json:"source_dir"`
	Outcome         string            `json:"outcome"`
	ErrorKind       string            `json:"error_kind,omitempty"`
	Error           string            `json:"error,omitempty"`
	ImagePath       string            `json:"image_path,omitempty"`
	ImageBytes      int64             `json:"image_bytes,omitempty"`
	StoragePath     string            `json:"storage_path,omitempty"`
	Timestamp       string            `json:"timestamp"` // RFC 3339
	DurationMs      int64             `json:"duration_ms"`
	Metrics         *metrics.Snapshot `json:"metrics,omitempty"`
}

// NewBuildCompletedEvent describes a finished build. result is nil when the
// build failed before commit; buildErr is nil on success.
func NewBuildCompletedEvent(req *types.BuildRequest, result *types.BuildResult, buildErr error, snap *metrics.Snapshot, finishedAt time.Time) *BuildCompletedEvent {
	e := &BuildCompletedEvent{
		ContractVersion: types.ContractVersion,
		EventType:       EventTypeBuildCompleted,
		Outcome:         OutcomeSuccess,
		Timestamp:       finishedAt.UTC().Format(time.RFC3339),
		Metrics:         snap,
	}
	if req != nil {
		e.Source = req.BaseName
		e.SourceDir = req.SourceDir
	}
	if snap != nil {
		e.BuildID = snap.BuildID
		e.DurationMs = snap.DurationMillis
	}
	if result != nil {
		e.BuildID = result.BuildID
		e.ImagePath = result.FinalPath
		e.ImageBytes = result.ImageBytes
		e.DurationMs = result.Duration.Milliseconds()
	}
	if buildErr != nil {
		e.Outcome = OutcomeFailure
		e.ErrorKind = types.KindOf(buildErr)
		e.Error = buildErr.Error()
	}
	return e
}

// Adapter publishes build completion events to a downstream system.
// Implementations are single-use per build.
type Adapter interface {
	// Publish sends a build completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *BuildCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// BaseBackoff is the delay before the first retry. It doubles per attempt.
var BaseBackoff = 500 * time.Millisecond

// Retry calls attempt up to 1+retries times with exponential backoff between
// calls. It stops early when attempt succeeds, when permanent reports the
// error as non-retriable, or when ctx ends. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, attempt func(context.Context) error, permanent func(error) bool) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * BaseBackoff
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
