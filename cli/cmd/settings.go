package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/config"
	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/log"
)

// settings is the effective configuration of one invocation:
// defaults, then the config file, then flags.
type settings struct {
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
	noColor bool
	quiet   bool
}

// loadSettings resolves the config file and applies flag overrides.
func loadSettings(c *cli.Context) (*settings, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working directory: %w", err)
	}

	cfg, path, err := config.Resolve(c.String("config"), wd)
	if err != nil {
		return nil, err
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := log.New(log.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: errWriter(c),
	})
	if err != nil {
		return nil, err
	}

	return &settings{
		cfg:     cfg,
		cfgPath: path,
		logger:  logger,
		noColor: c.Bool("no-color"),
		quiet:   c.Bool("quiet"),
	}, nil
}

// applyFlags overrides config values with explicitly set flags.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v := c.String("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if v := c.String("tool"); v != "" {
		cfg.Tool.Path = v
	}
	if c.Bool("no-elevate") {
		cfg.Elevation = "skip"
	}
	if v := c.String("publish-backend"); v != "" {
		cfg.Publish.Backend = v
	}
	if v := c.String("publish-path"); v != "" {
		cfg.Publish.Path = v
	}
	if v := c.String("notify-url"); v != "" {
		cfg.Notify.URL = v
	}
}

func (s *settings) status(c *cli.Context) *render.Status {
	return render.NewStatus(outWriter(c), s.noColor, s.quiet)
}

func outWriter(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App != nil && c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
