// Package metrics provides per-build metrics collection.
//
// The Collector accumulates counters during a single build. It is a leaf
// package with no internal dependencies; failure kinds are recorded as
// plain strings so callers decide the vocabulary.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable point-in-time view of a build's metrics.
// It is embedded in published build records and notifications.
type Snapshot struct {
	// Build lifecycle
	BuildsStarted   int64            `json:"builds_started" msgpack:"builds_started"`
	BuildsSucceeded int64            `json:"builds_succeeded" msgpack:"builds_succeeded"`
	BuildsFailed    int64            `json:"builds_failed" msgpack:"builds_failed"`
	FailuresByKind  map[string]int64 `json:"failures_by_kind,omitempty" msgpack:"failures_by_kind,omitempty"`

	// Image builder
	ToolLaunchSuccess int64 `json:"tool_launch_success" msgpack:"tool_launch_success"`
	ToolLaunchFailure int64 `json:"tool_launch_failure" msgpack:"tool_launch_failure"`

	// Commit
	Commits         int64 `json:"commits" msgpack:"commits"`
	Rollbacks       int64 `json:"rollbacks" msgpack:"rollbacks"`
	CleanupFailures int64 `json:"cleanup_failures" msgpack:"cleanup_failures"`

	// Publish / notify
	PublishSuccess int64 `json:"publish_success" msgpack:"publish_success"`
	PublishFailure int64 `json:"publish_failure" msgpack:"publish_failure"`
	NotifySuccess  int64 `json:"notify_success" msgpack:"notify_success"`
	NotifyFailure  int64 `json:"notify_failure" msgpack:"notify_failure"`

	// Sizes
	EstimatedBytes uint64 `json:"estimated_bytes" msgpack:"estimated_bytes"`
	ImageBytes     int64  `json:"image_bytes" msgpack:"image_bytes"`
	DurationMillis int64  `json:"duration_ms" msgpack:"duration_ms"`

	// Dimensions (informational, set at construction)
	BuildID        string `json:"build_id" msgpack:"build_id"`
	PublishBackend string `json:"publish_backend,omitempty" msgpack:"publish_backend,omitempty"`
}

// Collector accumulates metrics during a single build.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	buildsStarted   int64
	buildsSucceeded int64
	buildsFailed    int64
	failuresByKind  map[string]int64

	toolLaunchSuccess int64
	toolLaunchFailure int64

	commits         int64
	rollbacks       int64
	cleanupFailures int64

	publishSuccess int64
	publishFailure int64
	notifySuccess  int64
	notifyFailure  int64

	estimatedBytes uint64
	imageBytes     int64
	duration       time.Duration

	buildID        string
	publishBackend string
}

// NewCollector creates a Collector with dimension labels.
// publishBackend is empty when publishing is disabled.
func NewCollector(buildID, publishBackend string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		buildID:        buildID,
		publishBackend: publishBackend,
	}
}

func (c *Collector) inc(field *int64) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Build lifecycle ---

// IncBuildStarted records a build start.
func (c *Collector) IncBuildStarted() {
	if c == nil {
		return
	}
	c.inc(&c.buildsStarted)
}

// IncBuildSucceeded records a committed build.
func (c *Collector) IncBuildSucceeded() {
	if c == nil {
		return
	}
	c.inc(&c.buildsSucceeded)
}

// IncBuildFailed records a failed build classified by kind
// (e.g. "invalid_input", "tool_not_found").
func (c *Collector) IncBuildFailed(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsFailed++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// --- Image builder ---

// IncToolLaunchSuccess records a builder process that started.
func (c *Collector) IncToolLaunchSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.toolLaunchSuccess)
}

// IncToolLaunchFailure records a builder process that could not start.
func (c *Collector) IncToolLaunchFailure() {
	if c == nil {
		return
	}
	c.inc(&c.toolLaunchFailure)
}

// --- Commit ---

// IncCommit records a successful rename onto the final path.
func (c *Collector) IncCommit() {
	if c == nil {
		return
	}
	c.inc(&c.commits)
}

// IncRollback records a discarded temporary file.
func (c *Collector) IncRollback() {
	if c == nil {
		return
	}
	c.inc(&c.rollbacks)
}

// IncCleanupFailure records a temporary file that could not be removed.
func (c *Collector) IncCleanupFailure() {
	if c == nil {
		return
	}
	c.inc(&c.cleanupFailures)
}

// --- Publish / notify ---

// IncPublishSuccess records a successful publish call.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.publishSuccess)
}

// IncPublishFailure records a failed publish call.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.inc(&c.publishFailure)
}

// IncNotifySuccess records a delivered notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.inc(&c.notifySuccess)
}

// IncNotifyFailure records a notification that could not be delivered.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.inc(&c.notifyFailure)
}

// --- Sizes ---

// SetEstimatedBytes records the advisory size estimate.
func (c *Collector) SetEstimatedBytes(n uint64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.estimatedBytes = n
	c.mu.Unlock()
}

// SetImageBytes records the committed image size.
func (c *Collector) SetImageBytes(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.imageBytes = n
	c.mu.Unlock()
}

// SetDuration records the wall time from start to commit or failure.
func (c *Collector) SetDuration(d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.duration = d
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	failures := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		failures[k] = v
	}

	return Snapshot{
		BuildsStarted:   c.buildsStarted,
		BuildsSucceeded: c.buildsSucceeded,
		BuildsFailed:    c.buildsFailed,
		FailuresByKind:  failures,

		ToolLaunchSuccess: c.toolLaunchSuccess,
		ToolLaunchFailure: c.toolLaunchFailure,

		Commits:         c.commits,
		Rollbacks:       c.rollbacks,
		CleanupFailures: c.cleanupFailures,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,
		NotifySuccess:  c.notifySuccess,
		NotifyFailure:  c.notifyFailure,

		EstimatedBytes: c.estimatedBytes,
		ImageBytes:     c.imageBytes,
		DurationMillis: c.duration.Milliseconds(),

		BuildID:        c.buildID,
		PublishBackend: c.publishBackend,
	}
}
