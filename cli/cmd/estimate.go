package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/sizing"
)

// EstimateResponse is the output of the estimate command.
type EstimateResponse struct {
	Source           string `json:"source" yaml:"source"`
	ActualBytes      uint64 `json:"actual_bytes" yaml:"actual_bytes" render:"bytes"`
	MarginBytes      uint64 `json:"margin_bytes" yaml:"margin_bytes" render:"bytes"`
	TotalBytes       uint64 `json:"total_bytes" yaml:"total_bytes" render:"bytes"`
	RoundedMegabytes uint64 `json:"rounded_megabytes" yaml:"rounded_megabytes"`
}

// EstimateCommand returns the estimate command. It walks the source the
// same way a build does and never runs the image builder.
func EstimateCommand() *cli.Command {
	return &cli.Command{
		Name:      "estimate",
		Usage:     "Show the estimated image size for a directory",
		ArgsUsage: "<source>",
		Flags:     ReadOnlyFlags(),
		Action:    estimateAction,
	}
}

func estimateAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: ffpkg estimate <source>", exitFailure)
	}

	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	source, err := filepath.Abs(c.Args().First())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}
	if info, statErr := os.Stat(source); statErr != nil || !info.IsDir() {
		return cli.Exit(fmt.Sprintf("Error: input directory %q does not exist", c.Args().First()), exitFailure)
	}

	est, err := sizing.EstimateDir(source, s.cfg.Margin())
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	return r.Render(EstimateResponse{
		Source:           source,
		ActualBytes:      est.ActualBytes,
		MarginBytes:      est.MarginBytes,
		TotalBytes:       est.TotalBytes,
		RoundedMegabytes: est.RoundedMegabytes,
	})
}
