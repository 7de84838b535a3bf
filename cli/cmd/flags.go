// Package cmd provides the commands of the ffpkg binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Shared flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}
)

// GlobalFlags returns the flags accepted before any command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to config file (default: ./ffpkg.yaml when present)",
			EnvVars: []string{"FFPKG_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: console or json",
		},
		NoColorFlag,
	}
}

// BuildFlags returns the flags of the build pipeline. Each call returns new
// flag values so the root command and the build command can both carry them.
func BuildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "tool",
			Usage: "Path to the image builder (disables the search beside ffpkg and on PATH)",
		},
		&cli.BoolFlag{
			Name:  "no-elevate",
			Usage: "Do not check for or request administrator privileges",
		},
		&cli.StringFlag{
			Name:  "publish-backend",
			Usage: "Publish backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "publish-path",
			Usage: "Publish target (fs: directory, s3: bucket/prefix); empty disables publishing",
		},
		&cli.StringFlag{
			Name:  "notify-url",
			Usage: "Webhook or redis URL notified when the build completes",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only print the result line",
		},
		&cli.DurationFlag{
			Name:  "linger",
			Usage: "Wait this long before exiting (interactive builds default to 5s)",
		},
	}
}

// ReadOnlyFlags returns the flags of commands that only print information.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{FormatFlag}
}

// TUIReadOnlyFlags adds --tui to ReadOnlyFlags.
func TUIReadOnlyFlags() []cli.Flag {
	return append(ReadOnlyFlags(), &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show an interactive view (printed once when stdout is not a terminal)",
	})
}

// PublishReadFlags locate the store that builds were published to.
func PublishReadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "publish-backend",
			Usage: "Publish backend: fs or s3",
		},
		&cli.StringFlag{
			Name:  "publish-path",
			Usage: "Publish target (fs: directory, s3: bucket/prefix)",
		},
	}
}

// interactiveLinger is how long an interactive build keeps its window open.
const interactiveLinger = 5 * time.Second
