package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/types"
)

func TestNewBuildCompletedEvent_Success(t *testing.T) {
	req := &types.BuildRequest{SourceDir: "/data/game1", BaseName: "game1"}
	result := &types.BuildResult{
		BuildID:    "b-1",
		FinalPath:  "/out/game1.ffpkg",
		ImageBytes: 4096,
		Duration:   1500 * time.Millisecond,
	}
	snap := metrics.NewCollector("b-1", "fs").Snapshot()
	at := time.Date(2026, 2, 7, 13, 0, 0, 0, time.FixedZone("CET", 3600))

	e := NewBuildCompletedEvent(req, result, nil, &snap, at)

	if e.EventType != EventTypeBuildCompleted || e.Outcome != OutcomeSuccess {
		t.Errorf("type/outcome = %s/%s", e.EventType, e.Outcome)
	}
	if e.BuildID != "b-1" || e.Source != "game1" || e.ImagePath != "/out/game1.ffpkg" {
		t.Errorf("identity = %+v", e)
	}
	if e.DurationMs != 1500 || e.ImageBytes != 4096 {
		t.Errorf("duration/bytes = %d/%d", e.DurationMs, e.ImageBytes)
	}
	if e.Timestamp != "2026-02-07T12:00:00Z" {
		t.Errorf("Timestamp = %s", e.Timestamp)
	}
	if e.ErrorKind != "" || e.Error != "" {
		t.Errorf("unexpected error fields: %q %q", e.ErrorKind, e.Error)
	}
	if e.ContractVersion != types.ContractVersion {
		t.Errorf("ContractVersion = %s", e.ContractVersion)
	}
}

func TestNewBuildCompletedEvent_Failure(t *testing.T) {
	req := &types.BuildRequest{SourceDir: "/data/game1", BaseName: "game1"}
	c := metrics.NewCollector("b-2", "")
	c.SetDuration(250 * time.Millisecond)
	snap := c.Snapshot()
	buildErr := &types.BuildError{ExitCode: 3}

	e := NewBuildCompletedEvent(req, nil, buildErr, &snap, time.Now())

	if e.Outcome != OutcomeFailure || e.ErrorKind != "build_failure" {
		t.Errorf("outcome/kind = %s/%s", e.Outcome, e.ErrorKind)
	}
	if e.Error != buildErr.Error() {
		t.Errorf("Error = %q", e.Error)
	}
	if e.BuildID != "b-2" || e.DurationMs != 250 {
		t.Errorf("build id/duration from snapshot = %s/%d", e.BuildID, e.DurationMs)
	}
	if e.ImagePath != "" {
		t.Errorf("ImagePath = %q, want empty on failure", e.ImagePath)
	}
}

func withFastBackoff(t *testing.T) {
	t.Helper()
	prev := BaseBackoff
	BaseBackoff = time.Millisecond
	t.Cleanup(func() { BaseBackoff = prev })
}

func TestRetry(t *testing.T) {
	withFastBackoff(t)
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		retries   int
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"first try", 3, nil, 1, nil},
		{"recovers", 3, []error{errTransient, errTransient}, 3, nil},
		{"exhausted", 2, []error{errTransient, errTransient, errTransient}, 3, errTransient},
		{"permanent stops", 3, []error{errFatal}, 1, errFatal},
		{"no retries", 0, []error{errTransient}, 1, errTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(t.Context(), "test", tt.retries, func(context.Context) error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			}, func(err error) bool { return errors.Is(err, errFatal) })

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	called := false
	err := Retry(ctx, "test", 3, func(context.Context) error {
		called = true
		return nil
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if called {
		t.Error("attempt ran on a canceled context")
	}
}
