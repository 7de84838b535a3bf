package types //nolint:revive // types is a valid package name

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestOutputName(t *testing.T) {
	naming := DefaultNaming()

	tests := []struct {
		name string
		dir  string
		want string
	}{
		{"plain", "/data/game1", "game1.ffpkg"},
		{"trailing slash", "/data/game1/", "game1.ffpkg"},
		{"double trailing slash", "/data/game1//", "game1.ffpkg"},
		{"relative", "dumps/CUSA00001", "CUSA00001.ffpkg"},
		{"root", "/", "output.ffpkg"},
		{"empty", "", "output.ffpkg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputName(filepath.FromSlash(tt.dir), naming); got != tt.want {
				t.Errorf("OutputName(%q) = %q, want %q", tt.dir, got, tt.want)
			}
		})
	}
}

func TestOutputName_WindowsVolumeRoot(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("volume names only exist on windows")
	}
	if got := OutputName(`C:\`, DefaultNaming()); got != "output.ffpkg" {
		t.Errorf("OutputName(C:\\) = %q, want output.ffpkg", got)
	}
}

func TestOutputName_CustomNaming(t *testing.T) {
	naming := Naming{Extension: "img", DefaultName: "image"}
	if got := OutputName("/", naming); got != "image.img" {
		t.Errorf("OutputName(/) = %q, want image.img", got)
	}
	if got := naming.TempMarker(); got != ".img.tmp" {
		t.Errorf("TempMarker() = %q, want .img.tmp", got)
	}
}

func TestNewBuildRequest(t *testing.T) {
	src := filepath.Join(t.TempDir(), "game1")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(t.TempDir(), "nested", "out")

	req, err := NewBuildRequest(src+string(filepath.Separator), out, DefaultNaming())
	if err != nil {
		t.Fatalf("NewBuildRequest: %v", err)
	}

	if req.OutputName != "game1.ffpkg" {
		t.Errorf("OutputName = %q, want game1.ffpkg", req.OutputName)
	}
	if req.BaseName != "game1" {
		t.Errorf("BaseName = %q, want game1", req.BaseName)
	}
	if req.FinalPath() != filepath.Join(out, "game1.ffpkg") {
		t.Errorf("FinalPath = %q", req.FinalPath())
	}
	if info, err := os.Stat(out); err != nil || !info.IsDir() {
		t.Errorf("output directory was not created: %v", err)
	}
}

func TestNewBuildRequest_DefaultsOutputToWorkingDir(t *testing.T) {
	src := t.TempDir()
	wd := t.TempDir()
	t.Chdir(wd)

	req, err := NewBuildRequest(src, "", DefaultNaming())
	if err != nil {
		t.Fatalf("NewBuildRequest: %v", err)
	}

	want, _ := filepath.EvalSymlinks(wd)
	got, _ := filepath.EvalSymlinks(req.OutputDir)
	if got != want {
		t.Errorf("OutputDir = %q, want %q", got, want)
	}
}

func TestNewBuildRequest_InvalidSource(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
	}{
		{"missing", filepath.Join(dir, "missing")},
		{"file", file},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out")
			_, err := NewBuildRequest(tt.source, out, DefaultNaming())
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
			if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
				t.Error("output directory must not be created for invalid input")
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		kind  error
		label string
	}{
		{"wrapped io", NewError(ErrIO, "walk", "/x", errors.New("boom")), ErrIO, "io"},
		{"tool not found", &ToolNotFoundError{Name: "UFS2Tool"}, ErrToolNotFound, "tool_not_found"},
		{"build error", &BuildError{ExitCode: 3}, ErrBuildFailure, "build_failure"},
		{"commit", NewError(ErrCommitFailure, "rename", "/x", errors.New("busy")), ErrCommitFailure, "commit_failure"},
		{"invalid input", NewError(ErrInvalidInput, "validate", "/x", errors.New("missing")), ErrInvalidInput, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
			}
			if got := KindOf(fmt.Errorf("outer: %w", tt.err)); got != tt.label {
				t.Errorf("KindOf = %q, want %q", got, tt.label)
			}
		})
	}

	if KindOf(nil) != "" {
		t.Error("KindOf(nil) should be empty")
	}
	if KindOf(errors.New("plain")) != "unknown" {
		t.Error("KindOf(unclassified) should be unknown")
	}
}

func TestBuildError_Message(t *testing.T) {
	if got := (&BuildError{ExitCode: 2}).Error(); got != "image builder exited with code 2" {
		t.Errorf("Error() = %q", got)
	}
	cause := errors.New("exec: permission denied")
	err := &BuildError{ExitCode: -1, Err: cause}
	if !errors.Is(err, cause) {
		t.Error("BuildError should unwrap to its cause")
	}
}

func TestToolNotFoundError_NamesExecutable(t *testing.T) {
	err := &ToolNotFoundError{Name: "UFS2Tool.exe"}
	if got := err.Error(); got != "UFS2Tool.exe not found. Place it next to ffpkg or in your PATH" {
		t.Errorf("Error() = %q", got)
	}
}
