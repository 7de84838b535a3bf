package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/toolchain"
	"github.com/pithecene-io/ffpkg/types"
)

// VersionResponse is the output of the version command.
type VersionResponse struct {
	Version  string `json:"version" yaml:"version"`
	Contract string `json:"contract_version" yaml:"contract_version"`
	Commit   string `json:"commit" yaml:"commit"`
	Go       string `json:"go" yaml:"go"`
	Platform string `json:"platform" yaml:"platform"`
	// Tool is the builder executable name searched for on this platform.
	Tool string `json:"tool" yaml:"tool"`
}

// VersionCommand returns the version command. It reads no config file and
// never looks for the image builder.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: append(ReadOnlyFlags(), &cli.BoolFlag{
			Name:  "short",
			Usage: "Print only the version number",
		}),
		Action: func(c *cli.Context) error {
			if c.Bool("short") {
				_, err := fmt.Fprintln(outWriter(c), types.Version)
				return err
			}
			r, err := render.NewRenderer(c)
			if err != nil {
				return cli.Exit(err.Error(), exitFailure)
			}
			return r.Render(newVersionResponse(commit))
		},
	}
}

func newVersionResponse(commit string) VersionResponse {
	if commit == "" {
		commit = "unknown"
	}
	return VersionResponse{
		Version:  types.Version,
		Contract: types.ContractVersion,
		Commit:   commit,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Tool:     toolchain.DefaultName(),
	}
}
