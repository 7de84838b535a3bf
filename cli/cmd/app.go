package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/types"
)

// NewApp assembles the ffpkg command tree. The caller sets ExitErrHandler.
//
// A source directory whose name equals a command ("build", "clean", ...)
// must be written with a path prefix, e.g. ./build.
func NewApp(commit string) *cli.App {
	return &cli.App{
		Name:      "ffpkg",
		Usage:     "Package a directory into an ffpkg filesystem image",
		UsageText: "ffpkg [global options] <source> [output]\n   ffpkg [global options] command [command options] [arguments...]",
		ArgsUsage: "<source> [output]",
		Version:   fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		Flags:     append(GlobalFlags(), BuildFlags()...),
		Action:    RootAction,
		Commands: []*cli.Command{
			BuildCommand(),
			EstimateCommand(),
			LocateCommand(),
			CleanCommand(),
			HistoryCommand(),
			InspectCommand(),
			VersionCommand(commit),
		},
	}
}
