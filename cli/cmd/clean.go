package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/commit"
)

// defaultCleanAge keeps temp files of builds that may still be running.
const defaultCleanAge = time.Hour

// CleanResponse is the output of the clean command.
type CleanResponse struct {
	Directory string   `json:"directory" yaml:"directory"`
	Removed   []string `json:"removed" yaml:"removed"`
}

// CleanCommand returns the clean command, which removes temporary images
// left behind by builds that were killed before they could roll back.
func CleanCommand() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "Remove stale temporary images from an output directory",
		ArgsUsage: "[output]",
		Flags: append(ReadOnlyFlags(), &cli.DurationFlag{
			Name:  "older-than",
			Usage: "Only remove temp files last modified at least this long ago",
			Value: defaultCleanAge,
		}),
		Action: cleanAction,
	}
}

func cleanAction(c *cli.Context) error {
	if c.NArg() > 1 {
		return cli.Exit("usage: ffpkg clean [output]", exitFailure)
	}

	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	dir := c.Args().First()
	if dir == "" {
		if dir, err = os.Getwd(); err != nil {
			return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
		}
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	removed, err := commit.Sweep(dir, s.cfg.Naming().TempMarker(), c.Duration("older-than"), time.Now())
	for _, name := range removed {
		s.logger.Info("removed stale temp file", map[string]any{"path": filepath.Join(dir, name)})
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	if removed == nil {
		removed = []string{}
	}
	return r.Render(CleanResponse{Directory: dir, Removed: removed})
}
