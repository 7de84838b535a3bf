// Package toolchain finds the external image builder executable.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pithecene-io/ffpkg/types"
)

// Source describes how a tool path was resolved.
type Source string

const (
	// SourceConfigured means the path came from config or a flag.
	SourceConfigured Source = "configured"
	// SourceBesideProgram means the tool sits next to the running executable.
	SourceBesideProgram Source = "beside_program"
	// SourcePath means the tool was found on PATH.
	SourcePath Source = "path"
)

// Resolution is the outcome of a successful lookup.
type Resolution struct {
	Path   string `json:"path" yaml:"path"`
	Source Source `json:"source" yaml:"source"`
}

// Locator resolves the builder executable.
//
// Search order:
//  1. Path, when set. No fallback if it is not usable.
//  2. Name inside the directory of the running executable.
//  3. Name resolved through PATH.
type Locator struct {
	// Name is the executable file name. Empty means DefaultName().
	Name string
	// Path is an explicit location that bypasses the search.
	Path string
	// ExecutableDir returns the running program's directory. Nil uses os.Executable.
	ExecutableDir func() (string, error)
	// LookPath resolves a name through PATH. Nil uses exec.LookPath.
	LookPath func(string) (string, error)
}

// DefaultName returns the builder executable name for the host platform.
func DefaultName() string {
	return ExecutableName(types.DefaultToolName)
}

// ExecutableName appends the platform executable suffix to name, if any.
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

// Locate returns the resolved path, or *types.ToolNotFoundError.
func (l *Locator) Locate() (string, error) {
	res, err := l.Resolve()
	if err != nil {
		return "", err
	}
	return res.Path, nil
}

// Resolve is Locate plus the source of the match.
func (l *Locator) Resolve() (*Resolution, error) {
	name := l.Name
	if name == "" {
		name = DefaultName()
	}
	notFound := &types.ToolNotFoundError{Name: name}

	if l.Path != "" {
		notFound.Searched = append(notFound.Searched, l.Path)
		if isExecutableFile(l.Path) {
			abs, err := filepath.Abs(l.Path)
			if err != nil {
				abs = l.Path
			}
			return &Resolution{Path: abs, Source: SourceConfigured}, nil
		}
		return nil, notFound
	}

	if dir, err := l.executableDir(); err == nil {
		candidate := filepath.Join(dir, name)
		notFound.Searched = append(notFound.Searched, candidate)
		if isExecutableFile(candidate) {
			return &Resolution{Path: candidate, Source: SourceBesideProgram}, nil
		}
	}

	notFound.Searched = append(notFound.Searched, "$PATH")
	found, err := l.lookPath(name)
	if err == nil && found != "" {
		if abs, absErr := filepath.Abs(found); absErr == nil {
			found = abs
		}
		return &Resolution{Path: found, Source: SourcePath}, nil
	}

	return nil, notFound
}

func (l *Locator) executableDir() (string, error) {
	if l.ExecutableDir != nil {
		return l.ExecutableDir()
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func (l *Locator) lookPath(name string) (string, error) {
	if l.LookPath != nil {
		return l.LookPath(name)
	}
	p, err := exec.LookPath(name)
	if errors.Is(err, exec.ErrDot) {
		// A match in the working directory is still an explicit user choice.
		return p, nil
	}
	return p, err
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
