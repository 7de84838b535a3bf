// Package config loads the optional ffpkg.yaml file.
//
// Every value is optional. Defaults() supplies the built-in values, the file
// overrides them, and CLI flags override the file.
package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/ffpkg/types"
)

// DefaultFileName is looked up in the working directory when --config is not given.
const DefaultFileName = "ffpkg.yaml"

// Publish backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Notify adapter types.
const (
	NotifyWebhook = "webhook"
	NotifyRedis   = "redis"
)

// Config represents an ffpkg.yaml configuration file.
type Config struct {
	Tool      ToolConfig    `yaml:"tool"`
	Image     ImageConfig   `yaml:"image"`
	Elevation string        `yaml:"elevation"`
	Publish   PublishConfig `yaml:"publish"`
	Notify    NotifyConfig  `yaml:"notify"`
	Log       LogConfig     `yaml:"log"`
}

// ToolConfig locates the image builder.
type ToolConfig struct {
	// Name is the executable name searched beside the program and on PATH.
	Name string `yaml:"name"`
	// Path pins an explicit executable and disables the search.
	Path string `yaml:"path"`
}

// ImageConfig holds builder flags and output naming.
type ImageConfig struct {
	Extension    string  `yaml:"extension"`
	DefaultName  string  `yaml:"default_name"`
	FSVersion    int     `yaml:"fs_version"`
	BlockSize    int     `yaml:"block_size"`
	FragmentSize int     `yaml:"fragment_size"`
	MarginBytes  *uint64 `yaml:"margin_bytes,omitempty"`
}

// PublishConfig holds the optional lode publishing target.
// Publishing is disabled while Path is empty.
type PublishConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// NotifyConfig holds the optional build-completed notification target.
// Notification is disabled while URL is empty.
type NotifyConfig struct {
	Type         string            `yaml:"type"`
	URL          string            `yaml:"url"`
	Channel      string            `yaml:"channel,omitempty"`
	// Stream and StreamMaxLen apply to the redis type only.
	Stream       string            `yaml:"stream,omitempty"`
	StreamMaxLen int64             `yaml:"stream_max_len,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Timeout      Duration          `yaml:"timeout,omitempty"`
	Retries      *int              `yaml:"retries,omitempty"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	margin := types.DefaultMarginBytes
	return &Config{
		Tool: ToolConfig{Name: types.DefaultToolName},
		Image: ImageConfig{
			Extension:    types.DefaultExtension,
			DefaultName:  types.DefaultOutputName,
			FSVersion:    types.DefaultFSVersion,
			BlockSize:    types.DefaultBlockSize,
			FragmentSize: types.DefaultFragmentSize,
			MarginBytes:  &margin,
		},
		Elevation: "required",
		Publish:   PublishConfig{Backend: BackendFS},
		Notify:    NotifyConfig{Type: NotifyWebhook},
		Log:       LogConfig{Level: "info", Format: "console"},
	}
}

// ApplyDefaults fills every unset field from Defaults().
func (c *Config) ApplyDefaults() {
	d := Defaults()
	setString(&c.Tool.Name, d.Tool.Name)
	setString(&c.Image.Extension, d.Image.Extension)
	setString(&c.Image.DefaultName, d.Image.DefaultName)
	setInt(&c.Image.FSVersion, d.Image.FSVersion)
	setInt(&c.Image.BlockSize, d.Image.BlockSize)
	setInt(&c.Image.FragmentSize, d.Image.FragmentSize)
	if c.Image.MarginBytes == nil {
		c.Image.MarginBytes = d.Image.MarginBytes
	}
	setString(&c.Elevation, d.Elevation)
	setString(&c.Publish.Backend, d.Publish.Backend)
	setString(&c.Notify.Type, d.Notify.Type)
	setString(&c.Log.Level, d.Log.Level)
	setString(&c.Log.Format, d.Log.Format)
}

// Validate rejects non-positive sizes and unknown enum values.
// Call after ApplyDefaults.
func (c *Config) Validate() error {
	if c.Image.FSVersion <= 0 {
		return fmt.Errorf("image.fs_version must be positive, got %d", c.Image.FSVersion)
	}
	if c.Image.BlockSize <= 0 {
		return fmt.Errorf("image.block_size must be positive, got %d", c.Image.BlockSize)
	}
	if c.Image.FragmentSize <= 0 {
		return fmt.Errorf("image.fragment_size must be positive, got %d", c.Image.FragmentSize)
	}
	if c.Image.FragmentSize > c.Image.BlockSize {
		return fmt.Errorf("image.fragment_size (%d) must not exceed image.block_size (%d)",
			c.Image.FragmentSize, c.Image.BlockSize)
	}
	switch c.Elevation {
	case "required", "skip":
	default:
		return fmt.Errorf("elevation must be \"required\" or \"skip\", got %q", c.Elevation)
	}
	switch c.Publish.Backend {
	case BackendFS, BackendS3:
	default:
		return fmt.Errorf("publish.backend must be %q or %q, got %q", BackendFS, BackendS3, c.Publish.Backend)
	}
	switch c.Notify.Type {
	case NotifyWebhook, NotifyRedis:
	default:
		return fmt.Errorf("notify.type must be %q or %q, got %q", NotifyWebhook, NotifyRedis, c.Notify.Type)
	}
	if c.Notify.Retries != nil && *c.Notify.Retries < 0 {
		return fmt.Errorf("notify.retries must not be negative, got %d", *c.Notify.Retries)
	}
	if c.Notify.StreamMaxLen < 0 {
		return fmt.Errorf("notify.stream_max_len must not be negative, got %d", c.Notify.StreamMaxLen)
	}
	if c.Notify.Timeout.Duration < 0 {
		return fmt.Errorf("notify.timeout must not be negative, got %s", c.Notify.Timeout.Duration)
	}
	return nil
}

// ImageParams returns the builder flags.
func (c *Config) ImageParams() types.ImageParams {
	return types.ImageParams{
		FSVersion:    c.Image.FSVersion,
		BlockSize:    c.Image.BlockSize,
		FragmentSize: c.Image.FragmentSize,
	}
}

// Naming returns the output naming rules.
func (c *Config) Naming() types.Naming {
	return types.Naming{Extension: c.Image.Extension, DefaultName: c.Image.DefaultName}
}

// Margin returns the size estimate slack in bytes.
func (c *Config) Margin() uint64 {
	if c.Image.MarginBytes == nil {
		return types.DefaultMarginBytes
	}
	return *c.Image.MarginBytes
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}
