package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses the config file at path. No defaults are applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config file not found: %s", path)
	case err != nil:
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}
	return Parse(data, path)
}

// Parse expands ${VAR} references in data and decodes it strictly: an
// unknown key is an error naming the key. An empty or comment-only
// document yields a zero Config. name labels errors.
func Parse(data []byte, name string) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(ExpandEnv(string(data)))))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid YAML in %s: %w", name, err)
	}
	return &cfg, nil
}

// Resolve returns the effective configuration and the file it came from.
//
// explicit (from --config or FFPKG_CONFIG) must exist. Otherwise
// DefaultFileName in dir is read if it is a regular file, and with neither
// only defaults apply and the returned path is "".
func Resolve(explicit, dir string) (*Config, string, error) {
	path := explicit
	if path == "" {
		path = discover(dir)
	}

	cfg := &Config{}
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, "", err
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		if path == "" {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return cfg, path, nil
}

func discover(dir string) string {
	candidate := filepath.Join(dir, DefaultFileName)
	if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
		return candidate
	}
	return ""
}
