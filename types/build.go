// Package types defines the core domain types shared across ffpkg packages.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Builder invocation defaults. These are the exact values the image builder
// expects; config can override them but the defaults must stay bit-exact.
const (
	// DefaultToolName is the image builder executable name without platform suffix.
	DefaultToolName = "UFS2Tool"
	// BuildSubcommand is the builder subcommand that creates a new image.
	BuildSubcommand = "newfs"
	// DefaultFSVersion is the filesystem layout version (-O).
	DefaultFSVersion = 2
	// DefaultBlockSize is the block size in bytes (-b).
	DefaultBlockSize = 32768
	// DefaultFragmentSize is the fragment size in bytes (-f).
	DefaultFragmentSize = 4096
)

// Output naming and sizing defaults.
const (
	// DefaultExtension is the extension of committed images.
	DefaultExtension = "ffpkg"
	// DefaultOutputName replaces an empty source base name.
	DefaultOutputName = "output"
	// MiB is one mebibyte.
	MiB = 1024 * 1024
	// DefaultMarginBytes is the metadata allowance added to size estimates.
	DefaultMarginBytes uint64 = 10 * MiB
)

// ImageParams are the builder flag values for one build.
type ImageParams struct {
	FSVersion    int
	BlockSize    int
	FragmentSize int
}

// DefaultImageParams returns the builder flag defaults.
func DefaultImageParams() ImageParams {
	return ImageParams{
		FSVersion:    DefaultFSVersion,
		BlockSize:    DefaultBlockSize,
		FragmentSize: DefaultFragmentSize,
	}
}

// Naming controls how output file names are derived.
type Naming struct {
	Extension   string
	DefaultName string
}

// DefaultNaming returns the default naming rules.
func DefaultNaming() Naming {
	return Naming{Extension: DefaultExtension, DefaultName: DefaultOutputName}
}

// TempMarker is the suffix carried by in-flight temporary images,
// e.g. ".ffpkg.tmp". Stale-file sweeping matches on it.
func (n Naming) TempMarker() string {
	return "." + n.Extension + ".tmp"
}

// BuildRequest describes a single directory-to-image build.
type BuildRequest struct {
	// SourceDir is the absolute path of the directory to package.
	SourceDir string
	// OutputDir is the absolute path of the directory receiving the image.
	OutputDir string
	// BaseName is the source base name (or the default name) without extension.
	BaseName string
	// OutputName is BaseName plus the image extension.
	OutputName string
}

// FinalPath returns the path the committed image will occupy.
func (r *BuildRequest) FinalPath() string {
	return filepath.Join(r.OutputDir, r.OutputName)
}

// NewBuildRequest validates the source directory, creates the output
// directory if needed, and derives the output name.
// An empty output defaults to the current working directory.
func NewBuildRequest(source, output string, naming Naming) (*BuildRequest, error) {
	if source == "" {
		return nil, NewError(ErrInvalidInput, "validate", "", fmt.Errorf("source directory is required"))
	}

	absSource, err := filepath.Abs(source)
	if err != nil {
		return nil, NewError(ErrInvalidInput, "validate", source, err)
	}

	info, err := os.Stat(absSource)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewError(ErrInvalidInput, "validate", source, fmt.Errorf("input directory does not exist"))
		}
		return nil, NewError(ErrInvalidInput, "validate", source, err)
	}
	if !info.IsDir() {
		return nil, NewError(ErrInvalidInput, "validate", source, fmt.Errorf("not a directory"))
	}

	if output == "" {
		output, err = os.Getwd()
		if err != nil {
			return nil, NewError(ErrIO, "getwd", "", err)
		}
	}
	absOutput, err := filepath.Abs(output)
	if err != nil {
		return nil, NewError(ErrInvalidInput, "validate", output, err)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return nil, NewError(ErrIO, "mkdir", absOutput, err)
	}

	base := BaseName(absSource, naming)
	return &BuildRequest{
		SourceDir:  absSource,
		OutputDir:  absOutput,
		BaseName:   base,
		OutputName: base + "." + naming.Extension,
	}, nil
}

// BaseName returns the last element of dir, ignoring trailing separators.
// Roots and bare volume names yield naming.DefaultName.
func BaseName(dir string, naming Naming) string {
	cleaned := filepath.Clean(dir)
	rest := cleaned[len(filepath.VolumeName(cleaned)):]
	base := filepath.Base(rest)
	switch base {
	case "", ".", "..", "/", `\`:
		return naming.DefaultName
	}
	return base
}

// OutputName derives "<base>.<ext>" for a source directory.
func OutputName(dir string, naming Naming) string {
	return BaseName(dir, naming) + "." + naming.Extension
}

// SizeEstimate is the advisory space estimate for an image.
// It is never checked against the builder's real output.
type SizeEstimate struct {
	ActualBytes      uint64 `json:"actual_bytes" yaml:"actual_bytes" msgpack:"actual_bytes"`
	MarginBytes      uint64 `json:"margin_bytes" yaml:"margin_bytes" msgpack:"margin_bytes"`
	TotalBytes       uint64 `json:"total_bytes" yaml:"total_bytes" msgpack:"total_bytes"`
	RoundedMegabytes uint64 `json:"rounded_megabytes" yaml:"rounded_megabytes" msgpack:"rounded_megabytes"`
}

// ToolInvocation is one fully-resolved builder command line.
type ToolInvocation struct {
	ExecutablePath string   `json:"executable_path" yaml:"executable_path"`
	Args           []string `json:"args" yaml:"args"`
	TargetPath     string   `json:"target_path" yaml:"target_path"`
}

// CommitState is the lifecycle state of a commit transaction.
type CommitState string

const (
	// CommitPending means the temp file exists and nothing has been committed.
	CommitPending CommitState = "pending"
	// CommitCommitted means the temp file was renamed onto the final path.
	CommitCommitted CommitState = "committed"
	// CommitRolledBack means the temp file was discarded.
	CommitRolledBack CommitState = "rolled_back"
)

// BuildResult summarises a successful build.
type BuildResult struct {
	BuildID    string
	Request    *BuildRequest
	Estimate   SizeEstimate
	Invocation ToolInvocation
	FinalPath  string
	ImageBytes int64
	StartedAt  time.Time
	Duration   time.Duration
}
