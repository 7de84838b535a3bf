package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/toolchain"
	"github.com/pithecene-io/ffpkg/types"
)

// LocateResponse is the output of the locate command.
type LocateResponse struct {
	Name   string `json:"name" yaml:"name"`
	Path   string `json:"path" yaml:"path"`
	Source string `json:"source" yaml:"source"`
}

// LocateCommand returns the locate command.
func LocateCommand() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "Show which image builder a build would run",
		Flags: append(ReadOnlyFlags(), &cli.StringFlag{
			Name:  "tool",
			Usage: "Path to the image builder (disables the search)",
		}),
		Action: locateAction,
	}
}

func locateAction(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	loc := &toolchain.Locator{Name: s.cfg.Tool.Name, Path: s.cfg.Tool.Path}
	res, err := loc.Resolve()
	if err != nil {
		var notFound *types.ToolNotFoundError
		if errors.As(err, &notFound) {
			s.logger.Debug("image builder search failed", map[string]any{"searched": notFound.Searched})
		}
		return cli.Exit("Error: "+err.Error(), exitFailure)
	}

	return r.Render(LocateResponse{
		Name:   toolchain.ExecutableName(s.cfg.Tool.Name),
		Path:   res.Path,
		Source: string(res.Source),
	})
}
