package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/adapter"
	"github.com/pithecene-io/ffpkg/cli/reader"
	"github.com/pithecene-io/ffpkg/cli/tui"
	"github.com/pithecene-io/ffpkg/elevation"
	"github.com/pithecene-io/ffpkg/lode"
	"github.com/pithecene-io/ffpkg/manifest"
	"github.com/pithecene-io/ffpkg/toolchain"
	"github.com/pithecene-io/ffpkg/types"
)

// fakeTool writes a shell script that writes "image" to its last argument
// and exits with code.
func fakeTool(t *testing.T, code int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	path := filepath.Join(t.TempDir(), "UFS2Tool")
	script := "#!/bin/sh\n" +
		"for last; do :; done\n" +
		"printf image > \"$last\"\n" +
		"exit " + strconv.Itoa(code) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// sourceDir creates <tmp>/game1 with one file.
func sourceDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "game1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "eboot.bin"), []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

type result struct {
	err    error
	stdout string
	stderr string
}

func (r result) exitCode() int {
	if r.err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(r.err, &ec) {
		return ec.ExitCode()
	}
	return 1
}

func (r result) message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// run executes the app with args (without the program name).
func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp("test")
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"ffpkg"}, args...))
	return result{err: err, stdout: stdout.String(), stderr: stderr.String()}
}

type fakeGuard struct {
	elevated bool
	relaunch [][]string
}

func (g *fakeGuard) Elevated() (bool, error) { return g.elevated, nil }

func (g *fakeGuard) Relaunch(args []string) error {
	g.relaunch = append(g.relaunch, args)
	return nil
}

func useGuard(t *testing.T, g elevation.Guard) {
	t.Helper()
	prev := newGuard
	newGuard = func() elevation.Guard { return g }
	t.Cleanup(func() { newGuard = prev })
}

func recordLinger(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	prev := linger
	linger = func(_ context.Context, d time.Duration) { waits = append(waits, d) }
	t.Cleanup(func() { linger = prev })
	return &waits
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestBuild_CommitsImage(t *testing.T) {
	tool := fakeTool(t, 0)
	src := sourceDir(t)
	out := filepath.Join(t.TempDir(), "out")
	waits := recordLinger(t)

	r := run(t, "build", "--no-elevate", "--tool", tool, src, out)
	if r.err != nil {
		t.Fatalf("build failed: %v\nstdout:\n%s\nstderr:\n%s", r.err, r.stdout, r.stderr)
	}

	if got := listDir(t, out); len(got) != 1 || got[0] != "game1.ffpkg" {
		t.Errorf("output dir = %v, want [game1.ffpkg]", got)
	}
	data, err := os.ReadFile(filepath.Join(out, "game1.ffpkg"))
	if err != nil || string(data) != "image" {
		t.Errorf("image = %q, %v", data, err)
	}

	for _, want := range []string{"Success!", "Estimated image size", "about 11 MB", "newfs -O 2 -b 32768 -f 4096 -D"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, r.stdout)
		}
	}
	if len(*waits) != 0 {
		t.Errorf("non-interactive build lingered: %v", *waits)
	}
}

func TestRoot_PositionalArgsBuild(t *testing.T) {
	tool := fakeTool(t, 0)
	src := sourceDir(t)
	out := t.TempDir()
	recordLinger(t)

	r := run(t, "--no-elevate", "--tool", tool, src, out)
	if r.err != nil {
		t.Fatalf("root build failed: %v\n%s", r.err, r.stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "game1.ffpkg")); err != nil {
		t.Errorf("image not committed: %v", err)
	}
}

func TestBuild_ToolFailureLeavesNothing(t *testing.T) {
	tool := fakeTool(t, 3)
	src := sourceDir(t)
	out := t.TempDir()
	recordLinger(t)

	r := run(t, "build", "--no-elevate", "--tool", tool, src, out)
	if r.exitCode() != 1 {
		t.Fatalf("exit code = %d, want 1 (err %v)", r.exitCode(), r.err)
	}
	if !strings.Contains(r.message(), "exited with code 3") {
		t.Errorf("message = %q", r.message())
	}
	if got := listDir(t, out); len(got) != 0 {
		t.Errorf("output dir = %v, want empty", got)
	}
}

func TestBuild_FatalInputs(t *testing.T) {
	tool := fakeTool(t, 0)
	recordLinger(t)

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "missing source",
			args:    []string{"build", "--no-elevate", "--tool", tool, filepath.Join(t.TempDir(), "nope"), t.TempDir()},
			wantMsg: "does not exist",
		},
		{
			name:    "tool not found",
			args:    []string{"build", "--no-elevate", "--tool", filepath.Join(t.TempDir(), "UFS2Tool"), sourceDir(t), t.TempDir()},
			wantMsg: "not found",
		},
		{
			name:    "too many args",
			args:    []string{"build", "--no-elevate", "a", "b", "c"},
			wantMsg: "usage:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, tt.args...)
			if r.exitCode() != 1 {
				t.Fatalf("exit code = %d, want 1", r.exitCode())
			}
			if !strings.Contains(r.message(), tt.wantMsg) {
				t.Errorf("message = %q, want it to contain %q", r.message(), tt.wantMsg)
			}
		})
	}
}

func TestBuild_RelaunchesWhenNotElevated(t *testing.T) {
	g := &fakeGuard{elevated: false}
	useGuard(t, g)
	out := t.TempDir()

	r := run(t, "build", "--tool", "/unused", sourceDir(t), out)
	if r.exitCode() != 0 {
		t.Fatalf("exit code = %d, want 0 (err %v)", r.exitCode(), r.err)
	}
	if len(g.relaunch) != 1 {
		t.Fatalf("relaunch calls = %d, want 1", len(g.relaunch))
	}
	if !strings.Contains(r.stdout, "Requesting elevation") {
		t.Errorf("stdout = %q", r.stdout)
	}
	if got := listDir(t, out); len(got) != 0 {
		t.Errorf("unelevated process built anyway: %v", got)
	}
}

func TestBuild_ElevatedProceeds(t *testing.T) {
	g := &fakeGuard{elevated: true}
	useGuard(t, g)
	recordLinger(t)
	out := t.TempDir()

	r := run(t, "build", "--tool", fakeTool(t, 0), sourceDir(t), out)
	if r.err != nil {
		t.Fatalf("build: %v", r.err)
	}
	if len(g.relaunch) != 0 {
		t.Error("elevated process relaunched")
	}
}

func TestInteractive_PromptsAndLingers(t *testing.T) {
	tool := fakeTool(t, 0)
	src := sourceDir(t)
	out := t.TempDir()
	waits := recordLinger(t)

	var prompts bytes.Buffer
	input := "\n" + // empty source is rejected
		filepath.Join(t.TempDir(), "missing") + "\n" + // so is a missing one
		"  \"" + src + "\"  \n" + // quotes and spaces are stripped
		"'" + out + "'\n"
	prev := newAsker
	newAsker = func(*cli.Context) tui.Asker { return tui.NewLineAsker(strings.NewReader(input), &prompts) }
	t.Cleanup(func() { newAsker = prev })

	r := run(t, "--no-elevate", "--tool", tool)
	if r.err != nil {
		t.Fatalf("interactive build: %v\n%s", r.err, prompts.String())
	}

	if _, err := os.Stat(filepath.Join(out, "game1.ffpkg")); err != nil {
		t.Errorf("image not committed: %v", err)
	}
	for _, want := range []string{"path cannot be empty", "directory is not valid"} {
		if !strings.Contains(prompts.String(), want) {
			t.Errorf("prompt output missing %q:\n%s", want, prompts.String())
		}
	}
	if len(*waits) != 1 || (*waits)[0] != interactiveLinger {
		t.Errorf("lingers = %v, want [%v]", *waits, interactiveLinger)
	}
}

func TestInteractive_Cancelled(t *testing.T) {
	prev := newAsker
	newAsker = func(*cli.Context) tui.Asker { return tui.NewLineAsker(strings.NewReader(""), io.Discard) }
	t.Cleanup(func() { newAsker = prev })

	r := run(t, "--no-elevate")
	if r.exitCode() != 1 || !strings.Contains(r.message(), "Cancelled") {
		t.Errorf("exit = %d, message = %q", r.exitCode(), r.message())
	}
}

func TestBuild_LingerFlagOverrides(t *testing.T) {
	waits := recordLinger(t)

	r := run(t, "build", "--no-elevate", "--linger", "2s", "--tool", fakeTool(t, 0), sourceDir(t), t.TempDir())
	if r.err != nil {
		t.Fatalf("build: %v", r.err)
	}
	if len(*waits) != 1 || (*waits)[0] != 2*time.Second {
		t.Errorf("lingers = %v, want [2s]", *waits)
	}
}

// webhookRecorder collects build_completed events.
type webhookRecorder struct {
	mu     sync.Mutex
	events []adapter.BuildCompletedEvent
}

func (w *webhookRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var e adapter.BuildCompletedEvent
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.mu.Lock()
		w.events = append(w.events, e)
		w.mu.Unlock()
		rw.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestBuild_PublishesAndNotifies(t *testing.T) {
	recordLinger(t)
	rec := &webhookRecorder{}
	ts := rec.server(t)
	store := t.TempDir()
	out := t.TempDir()

	r := run(t, "build", "--no-elevate", "--tool", fakeTool(t, 0),
		"--publish-path", store, "--notify-url", ts.URL, sourceDir(t), out)
	if r.err != nil {
		t.Fatalf("build: %v\n%s", r.err, r.stdout)
	}

	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	e := rec.events[0]
	if e.Outcome != adapter.OutcomeSuccess || e.Source != "game1" || e.Metrics == nil {
		t.Fatalf("event = %+v", e)
	}
	if e.Metrics.PublishSuccess != 1 || e.Metrics.Commits != 1 {
		t.Errorf("metrics = %+v", e.Metrics)
	}

	cfg := lode.Config{
		Dataset: lode.DefaultDataset,
		Source:  "game1",
		Day:     lode.DeriveDay(time.Now()),
		BuildID: e.BuildID,
	}
	image := filepath.Join(store, filepath.FromSlash(cfg.FilePath("game1.ffpkg")))
	if data, err := os.ReadFile(image); err != nil || string(data) != "image" {
		t.Errorf("published image = %q, %v", data, err)
	}
	raw, err := os.ReadFile(image + manifest.Suffix)
	if err != nil {
		t.Fatalf("published manifest: %v", err)
	}
	m, err := manifest.Decode(raw)
	if err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if err := m.Verify(filepath.Join(out, "game1.ffpkg")); err != nil {
		t.Errorf("manifest does not match committed image: %v", err)
	}
}

func TestBuild_FailureStillNotifies(t *testing.T) {
	recordLinger(t)
	rec := &webhookRecorder{}
	ts := rec.server(t)

	r := run(t, "build", "--no-elevate", "--tool", fakeTool(t, 2), "--notify-url", ts.URL, sourceDir(t), t.TempDir())
	if r.exitCode() != 1 {
		t.Fatalf("exit code = %d, want 1", r.exitCode())
	}
	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	e := rec.events[0]
	if e.Outcome != adapter.OutcomeFailure || e.ErrorKind != "build_failure" {
		t.Errorf("event = %+v", e)
	}
}

func TestBuild_NotifyFailureIsWarning(t *testing.T) {
	recordLinger(t)
	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(ts.Close)

	r := run(t, "build", "--no-elevate", "--tool", fakeTool(t, 0), "--notify-url", ts.URL, sourceDir(t), t.TempDir())
	if r.err != nil {
		t.Fatalf("notify failure changed the exit: %v", r.err)
	}
	if !strings.Contains(r.stdout, "notification not sent") {
		t.Errorf("stdout = %q", r.stdout)
	}
}

func TestEstimateCommand(t *testing.T) {
	src := sourceDir(t)

	r := run(t, "estimate", "--format", "json", src)
	if r.err != nil {
		t.Fatalf("estimate: %v", r.err)
	}

	var resp EstimateResponse
	if err := json.Unmarshal([]byte(r.stdout), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", r.stdout, err)
	}
	if resp.ActualBytes != 10 || resp.TotalBytes != 10+10*1024*1024 || resp.RoundedMegabytes != 11 {
		t.Errorf("estimate = %+v", resp)
	}

	r = run(t, "estimate", filepath.Join(t.TempDir(), "nope"))
	if r.exitCode() != 1 {
		t.Errorf("missing source exit = %d, want 1", r.exitCode())
	}
}

func TestLocateCommand(t *testing.T) {
	tool := fakeTool(t, 0)

	r := run(t, "locate", "--format", "json", "--tool", tool)
	if r.err != nil {
		t.Fatalf("locate: %v", r.err)
	}
	var resp LocateResponse
	if err := json.Unmarshal([]byte(r.stdout), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", r.stdout, err)
	}
	if resp.Path != tool || resp.Source != "configured" {
		t.Errorf("locate = %+v", resp)
	}

	r = run(t, "locate", "--tool", filepath.Join(t.TempDir(), "missing"))
	if r.exitCode() != 1 || !strings.Contains(r.message(), "not found") {
		t.Errorf("exit = %d, message = %q", r.exitCode(), r.message())
	}
}

func TestCleanCommand(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "game1_123.ffpkg.tmp")
	fresh := filepath.Join(dir, "game1_456.ffpkg.tmp")
	keep := filepath.Join(dir, "game1.ffpkg")
	for _, p := range []string{stale, fresh, keep} {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	r := run(t, "clean", "--format", "json", dir)
	if r.err != nil {
		t.Fatalf("clean: %v", r.err)
	}
	var resp CleanResponse
	if err := json.Unmarshal([]byte(r.stdout), &resp); err != nil {
		t.Fatalf("unmarshal %q: %v", r.stdout, err)
	}
	if len(resp.Removed) != 1 || resp.Removed[0] != "game1_123.ffpkg.tmp" {
		t.Errorf("removed = %v", resp.Removed)
	}
	if got := listDir(t, dir); len(got) != 2 {
		t.Errorf("remaining = %v, want fresh temp and image", got)
	}
}

func TestVersionCommand(t *testing.T) {
	r := run(t, "version", "--format", "json")
	if r.err != nil {
		t.Fatalf("version: %v", r.err)
	}
	var resp VersionResponse
	if err := json.Unmarshal([]byte(r.stdout), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := VersionResponse{
		Version:  types.Version,
		Contract: types.ContractVersion,
		Commit:   "test",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Tool:     toolchain.DefaultName(),
	}
	if resp != want {
		t.Errorf("version = %+v, want %+v", resp, want)
	}
}

func TestVersionCommand_Short(t *testing.T) {
	r := run(t, "version", "--short")
	if r.err != nil {
		t.Fatalf("version: %v", r.err)
	}
	if r.stdout != types.Version+"\n" {
		t.Errorf("stdout = %q, want %q", r.stdout, types.Version+"\n")
	}
}

func TestNewVersionResponse_UnknownCommit(t *testing.T) {
	if got := newVersionResponse("").Commit; got != "unknown" {
		t.Errorf("commit = %q, want unknown", got)
	}
}

func TestConfigFile_AppliesImageParams(t *testing.T) {
	recordLinger(t)
	if runtime.GOOS == "windows" {
		t.Skip("fake tool is a shell script")
	}
	argsFile := filepath.Join(t.TempDir(), "args")
	tool := filepath.Join(t.TempDir(), "UFS2Tool")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > \"" + argsFile + "\"\nfor last; do :; done\nprintf image > \"$last\"\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(t.TempDir(), "ffpkg.yaml")
	cfg := "tool:\n  path: " + tool + "\nimage:\n  block_size: 65536\n  fragment_size: 8192\nelevation: skip\nlog:\n  level: error\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	r := run(t, "--config", cfgPath, "build", sourceDir(t), t.TempDir())
	if r.err != nil {
		t.Fatalf("build: %v\n%s", r.err, r.stdout)
	}
	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(args), "-b\n65536\n-f\n8192\n") {
		t.Errorf("tool args = %q", args)
	}
}

func TestPromptPaths_DefaultOutput(t *testing.T) {
	src := sourceDir(t)
	a := tui.NewLineAsker(strings.NewReader(src+"\n\n"), io.Discard)

	gotSrc, gotOut, err := promptPaths(a, "/work")
	if err != nil {
		t.Fatal(err)
	}
	if gotSrc != src || gotOut != "/work" {
		t.Errorf("promptPaths = %q, %q", gotSrc, gotOut)
	}
}

func TestHistoryAndInspect(t *testing.T) {
	recordLinger(t)
	store := t.TempDir()

	for _, name := range []string{"game1", "game2"} {
		src := filepath.Join(t.TempDir(), name)
		if err := os.MkdirAll(src, 0o755); err != nil {
			t.Fatal(err)
		}
		r := run(t, "build", "--no-elevate", "--tool", fakeTool(t, 0), "--publish-path", store, src, t.TempDir())
		if r.err != nil {
			t.Fatalf("build %s: %v", name, r.err)
		}
	}

	r := run(t, "history", "--format", "json", "--publish-path", store)
	if r.err != nil {
		t.Fatalf("history: %v", r.err)
	}
	var items []reader.BuildItem
	if err := json.Unmarshal([]byte(r.stdout), &items); err != nil {
		t.Fatalf("unmarshal %q: %v", r.stdout, err)
	}
	if len(items) != 2 || items[0].Source != "game2" || items[1].Source != "game1" {
		t.Fatalf("history = %+v", items)
	}

	r = run(t, "history", "--format", "json", "--publish-path", store, "--source", "game1")
	if r.err != nil {
		t.Fatalf("history --source: %v", r.err)
	}
	items = nil
	if err := json.Unmarshal([]byte(r.stdout), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 1 || items[0].Source != "game1" {
		t.Errorf("filtered history = %+v", items)
	}

	r = run(t, "inspect", "--format", "json", "--publish-path", store, items[0].BuildID)
	if r.err != nil {
		t.Fatalf("inspect: %v", r.err)
	}
	var detail reader.BuildDetail
	if err := json.Unmarshal([]byte(r.stdout), &detail); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if detail.Name != "game1.ffpkg" || detail.ImageBytes != 5 || len(detail.SHA256) != 64 {
		t.Errorf("inspect = %+v", detail)
	}

	r = run(t, "inspect", "--publish-path", store, "no-such-build")
	if r.exitCode() != 1 || !strings.Contains(r.message(), "was not published") {
		t.Errorf("missing build: exit = %d, message = %q", r.exitCode(), r.message())
	}
}

func TestHistory_NoPublishPath(t *testing.T) {
	r := run(t, "history")
	if r.exitCode() != 1 || !strings.Contains(r.message(), "no publish path configured") {
		t.Errorf("exit = %d, message = %q", r.exitCode(), r.message())
	}
}

func TestHistory_MissingStoreHints(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "never-published")
	r := run(t, "history", "--publish-path", missing)
	if r.exitCode() != 1 {
		t.Fatalf("exit = %d, want 1", r.exitCode())
	}
	msg := r.message()
	if !strings.Contains(msg, "not found") || !strings.Contains(msg, "Hint: check that publish.path") {
		t.Errorf("message = %q", msg)
	}
}
