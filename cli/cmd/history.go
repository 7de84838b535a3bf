package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	lodeds "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/config"
	"github.com/pithecene-io/ffpkg/cli/reader"
	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/cli/tui"
	"github.com/pithecene-io/ffpkg/lode"
)

// newReader is overridable in tests.
var newReader = openReader

// HistoryCommand returns the history command, which lists published builds.
func HistoryCommand() *cli.Command {
	flags := append(TUIReadOnlyFlags(), PublishReadFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:  "source",
			Usage: "Only list builds of this source name",
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Maximum number of builds to list (0 lists all)",
			Value: 20,
		},
	)
	return &cli.Command{
		Name:   "history",
		Usage:  "List builds published to the configured store",
		Flags:  flags,
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	if c.Int("limit") < 0 {
		return cli.Exit("Error: --limit must not be negative", exitFailure)
	}

	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	rd, err := newReader(c.Context, s.cfg.Publish)
	if err != nil {
		return storageExit(err)
	}

	items, err := rd.ListBuilds(c.Context, reader.ListOptions{
		Source: c.String("source"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		s.logger.Error("history query failed", map[string]any{"error": err, "kind": lode.KindName(err), "path": s.cfg.Publish.Path})
		return storageExit(err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewHistory, items)
	}
	return r.Render(items)
}

// InspectCommand returns the inspect command, which shows one published build.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show everything recorded about a published build",
		ArgsUsage: "<build-id>",
		Flags:     append(TUIReadOnlyFlags(), PublishReadFlags()...),
		Action:    inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: ffpkg inspect <build-id>", exitFailure)
	}
	buildID := c.Args().First()

	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	rd, err := newReader(c.Context, s.cfg.Publish)
	if err != nil {
		return storageExit(err)
	}

	build, err := rd.InspectBuild(c.Context, buildID)
	if errors.Is(err, lode.ErrNoBuildsFound) {
		return cli.Exit(fmt.Sprintf("Error: build %s was not published to %s", buildID, s.cfg.Publish.Path), exitFailure)
	}
	if err != nil {
		return storageExit(err)
	}

	if c.Bool("tui") {
		return r.RenderTUI(tui.ViewInspectBuild, build)
	}
	return r.Render(build)
}

// storageExit reports a publish store failure, with a hint when the
// failure kind suggests one.
func storageExit(err error) cli.ExitCoder {
	msg := "Error: " + err.Error()
	if hint := lode.Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return cli.Exit(msg, exitFailure)
}

// openReader opens the publish store read-only.
func openReader(ctx context.Context, pc config.PublishConfig) (reader.Reader, error) {
	if pc.Path == "" {
		return nil, errors.New("no publish path configured; set publish.path or pass --publish-path")
	}

	var factory lodeds.StoreFactory
	switch pc.Backend {
	case config.BackendS3:
		f, err := lode.S3Factory(ctx, s3Config(pc))
		if err != nil {
			return nil, lode.WrapInitError(err, pc.Path)
		}
		factory = f
	default:
		info, err := os.Stat(pc.Path)
		if err != nil {
			return nil, lode.WrapInitError(err, pc.Path)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("publish path %s is not a directory", pc.Path)
		}
		factory = lodeds.NewFSFactory(pc.Path)
	}

	ds, err := lode.NewReadDataset(lode.DefaultDataset, factory)
	if err != nil {
		return nil, err
	}
	return reader.NewLodeReader(ds), nil
}
