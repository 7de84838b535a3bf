package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/inhies/go-bytesize"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/elevation"
	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/runtime"
	"github.com/pithecene-io/ffpkg/toolchain"
	"github.com/pithecene-io/ffpkg/types"
)

// Exit codes. Every fatal condition exits 1.
const (
	exitSuccess = 0
	exitFailure = 1
)

// Overridable in tests.
var (
	newGuard = elevation.NewSystemGuard
	linger   = func(ctx context.Context, d time.Duration) {
		select {
		case <-ctx.Done():
		case <-time.After(d):
		}
	}
)

// BuildCommand returns the build command.
func BuildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Package a directory into an image",
		ArgsUsage: "<source> [output]",
		Flags:     BuildFlags(),
		Action:    buildAction,
	}
}

// RootAction runs when no command is named. Positional arguments build
// directly; no arguments start the interactive prompts.
func RootAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return interactiveAction(c)
	}
	return buildAction(c)
}

func buildAction(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return cli.Exit("usage: ffpkg build <source> [output]", exitFailure)
	}

	s, err := loadSettings(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}
	defer func() { _ = s.logger.Sync() }()

	if err := ensureElevated(c, s); err != nil {
		return err
	}

	return execute(c, s, c.Args().Get(0), c.Args().Get(1), false)
}

// ensureElevated returns cli.Exit(0) when an elevated copy of the program
// has taken over, and nil when this process should build.
func ensureElevated(c *cli.Context, s *settings) error {
	mode, err := elevation.ParseMode(s.cfg.Elevation)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	guard := announcingGuard{Guard: newGuard(), status: s.status(c)}
	proceed, err := elevation.Ensure(guard, mode, os.Args[1:])
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v. Run ffpkg as administrator or pass --no-elevate", err), exitFailure)
	}
	if !proceed {
		s.logger.Info("relaunched with elevated privileges", nil)
		return cli.Exit("", exitSuccess)
	}
	return nil
}

// announcingGuard tells the user why a second window or a password prompt
// is about to appear.
type announcingGuard struct {
	elevation.Guard
	status *render.Status
}

func (g announcingGuard) Relaunch(args []string) error {
	g.status.Info("Administrator privileges required. Requesting elevation...")
	return g.Guard.Relaunch(args)
}

// execute runs the pipeline for one request, then publishes and notifies.
// Publish and notify failures are warnings; only the build decides the exit code.
func execute(c *cli.Context, s *settings, source, output string, interactive bool) error {
	status := s.status(c)
	buildID := uuid.NewString()
	logger := s.logger

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := ""
	if s.cfg.Publish.Path != "" {
		backend = s.cfg.Publish.Backend
	}
	collector := metrics.NewCollector(buildID, backend)

	req, err := types.NewBuildRequest(source, output, s.cfg.Naming())
	if err != nil {
		collector.IncBuildStarted()
		collector.IncBuildFailed(types.KindOf(err))
		notifyBuild(c.Context, s, status, nil, nil, err, collector)
		return finish(ctx, c, s, err, interactive)
	}

	status.Detail("Final file", req.FinalPath())

	builder := runtime.NewBuilder()
	builder.Params = s.cfg.ImageParams()
	builder.Stdout = outWriter(c)
	builder.Stderr = errWriter(c)

	pipeline, err := runtime.NewPipeline(&runtime.PipelineConfig{
		Request:     req,
		Naming:      s.cfg.Naming(),
		MarginBytes: s.cfg.Margin(),
		BuildID:     buildID,
		Locator:     &toolchain.Locator{Name: s.cfg.Tool.Name, Path: s.cfg.Tool.Path},
		Builder:     builder,
		Logger:      logger,
		Collector:   collector,
		Observer: runtime.Observer{
			Estimated: func(e types.SizeEstimate) {
				status.Detail("Actual file size", render.FormatBytes(e.ActualBytes))
				status.Detail("Estimated image size", fmt.Sprintf("about %d MB (includes %s slack)",
					e.RoundedMegabytes, bytesize.ByteSize(e.MarginBytes)))
			},
			ToolResolved: func(path string) {
				status.Detail("Image builder", path)
			},
			Invoking: func(inv types.ToolInvocation) {
				status.Info("Executing command: %s %s", inv.ExecutablePath, strings.Join(inv.Args, " "))
				status.Info("Creating image... (this may take a while)")
			},
		},
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), exitFailure)
	}

	result, buildErr := pipeline.Execute(ctx)
	if buildErr == nil {
		status.Success("Image created: %s", result.FinalPath)
		publishBuild(c.Context, s, status, result, collector)
	}
	notifyBuild(c.Context, s, status, req, result, buildErr, collector)

	return finish(ctx, c, s, buildErr, interactive)
}

// finish lingers when asked to and maps the build error to an exit.
func finish(ctx context.Context, c *cli.Context, s *settings, buildErr error, interactive bool) error {
	wait := time.Duration(0)
	if interactive {
		wait = interactiveLinger
	}
	if c.IsSet("linger") {
		wait = c.Duration("linger")
	}
	if wait > 0 {
		s.status(c).Info("Exiting in %s...", wait)
		linger(ctx, wait)
	}

	if buildErr == nil {
		return nil
	}
	return cli.Exit(errorMessage(buildErr), exitFailure)
}

// errorMessage renders a pipeline error for the console.
func errorMessage(err error) string {
	var notFound *types.ToolNotFoundError
	if errors.As(err, &notFound) {
		return "Error: " + notFound.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "Error: build interrupted; the partial image was removed"
	}
	return fmt.Sprintf("Error: %v", err)
}
