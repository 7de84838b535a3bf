package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNew_JSONIncludesBuildContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "debug", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.WithBuild("b-1", "game1").Info("build started", map[string]any{
		"estimated_mb": 11,
		"error":        errors.New("boom"),
	})

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}

	want := map[string]any{
		"message":      "build started",
		"level":        "info",
		"build_id":     "b-1",
		"source":       "game1",
		"estimated_mb": float64(11),
		"error":        "boom",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Level: "warn", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.Info("hidden", nil)
	l.Warn("shown", nil)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry written at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn entry missing")
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Sugar().Infof("wrote %s", "game1.ffpkg")

	if !strings.Contains(buf.String(), "INFO") || !strings.Contains(buf.String(), "wrote game1.ffpkg") {
		t.Errorf("console line = %q", buf.String())
	}
}

func TestNew_RejectsUnknownOptions(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNilLogger_IsSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored", map[string]any{"k": "v"})
	l.Warn("ignored", nil)
	l.Error("ignored", nil)
	l.Debug("ignored", nil)
	if l.WithBuild("x", "y") != nil {
		t.Error("WithBuild on nil logger should stay nil")
	}
	l.Sugar().Infof("ignored %d", 1)
	if err := l.Sync(); err != nil {
		t.Errorf("Sync: %v", err)
	}
}
