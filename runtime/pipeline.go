package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pithecene-io/ffpkg/commit"
	"github.com/pithecene-io/ffpkg/log"
	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/sizing"
	"github.com/pithecene-io/ffpkg/types"
)

// ToolLocator resolves the image builder executable.
// *toolchain.Locator satisfies it.
type ToolLocator interface {
	Locate() (string, error)
}

// Observer receives progress callbacks. Every field is optional.
type Observer struct {
	// Estimated is called once the size estimate is known.
	Estimated func(types.SizeEstimate)
	// ToolResolved is called with the builder path before it runs.
	ToolResolved func(path string)
	// Invoking is called with the exact command line about to run.
	Invoking func(types.ToolInvocation)
}

// PipelineConfig configures a single build.
type PipelineConfig struct {
	// Request is the validated build request.
	Request *types.BuildRequest
	// Naming supplies the temporary file marker.
	Naming types.Naming
	// MarginBytes is the slack added to the size estimate.
	MarginBytes uint64
	// BuildID identifies this build. Empty generates a UUID.
	BuildID string
	// FS is the filesystem walked for the estimate. Nil uses the host filesystem.
	// The commit always happens on the host filesystem.
	FS afero.Fs
	// Locator resolves the builder executable. Required.
	Locator ToolLocator
	// Builder constructs the builder command line. Nil uses NewBuilder().
	Builder *Builder
	// Runner executes the command line. Nil uses Builder.
	Runner Runner
	// Logger receives structured progress entries. Nil discards them.
	Logger *log.Logger
	// Collector is the metrics collector for this build.
	// If nil, no metrics are recorded (all Collector methods are nil-safe).
	Collector *metrics.Collector
	// Observer receives progress callbacks for user-facing output.
	Observer Observer
	// Now overrides the clock (for testing). Nil uses time.Now.
	Now func() time.Time
}

// Pipeline orchestrates estimate, locate, build and commit for one request.
type Pipeline struct {
	config *PipelineConfig
	logger *log.Logger
	now    func() time.Time
}

// NewPipeline validates config and fills in defaults.
func NewPipeline(config *PipelineConfig) (*Pipeline, error) {
	if config.Request == nil {
		return nil, errors.New("pipeline: request is required")
	}
	if config.Locator == nil {
		return nil, errors.New("pipeline: tool locator is required")
	}
	if config.Naming.Extension == "" {
		config.Naming = types.DefaultNaming()
	}
	if config.BuildID == "" {
		config.BuildID = uuid.NewString()
	}
	if config.FS == nil {
		config.FS = afero.NewOsFs()
	}
	if config.Builder == nil {
		config.Builder = NewBuilder()
	}
	if config.Runner == nil {
		config.Runner = config.Builder
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Pipeline{
		config: config,
		logger: config.Logger.WithBuild(config.BuildID, config.Request.BaseName),
		now:    now,
	}, nil
}

// BuildID returns the identifier of this build.
func (p *Pipeline) BuildID() string {
	return p.config.BuildID
}

// Execute runs the build end-to-end.
//
// Execution flow:
//  1. Estimate the image size (informational)
//  2. Locate the builder
//  3. Run the builder against a temporary file
//  4. Commit the temporary file to the final path, or roll it back
//
// Nothing at the final path changes unless step 4 commits.
func (p *Pipeline) Execute(ctx context.Context) (*types.BuildResult, error) {
	cfg := p.config
	req := cfg.Request
	startedAt := p.now()
	cfg.Collector.IncBuildStarted()

	p.logger.Info("starting build", map[string]any{
		"source_dir": req.SourceDir,
		"output":     req.FinalPath(),
	})

	estimate, err := sizing.Estimate(cfg.FS, req.SourceDir, cfg.MarginBytes)
	if err != nil {
		return nil, p.fail(startedAt, "size estimation failed", err)
	}
	cfg.Collector.SetEstimatedBytes(estimate.TotalBytes)
	p.logger.Info("estimated image size", map[string]any{
		"actual_bytes":      estimate.ActualBytes,
		"total_bytes":       estimate.TotalBytes,
		"rounded_megabytes": estimate.RoundedMegabytes,
	})
	if cfg.Observer.Estimated != nil {
		cfg.Observer.Estimated(estimate)
	}

	toolPath, err := cfg.Locator.Locate()
	if err != nil {
		return nil, p.fail(startedAt, "image builder not found", err)
	}
	p.logger.Debug("resolved image builder", map[string]any{"tool": toolPath})
	if cfg.Observer.ToolResolved != nil {
		cfg.Observer.ToolResolved(toolPath)
	}

	var inv types.ToolInvocation
	build := func(tempPath string) error {
		inv = cfg.Builder.Invocation(toolPath, req.SourceDir, tempPath)
		p.logger.Debug("invoking image builder", map[string]any{
			"tool": inv.ExecutablePath,
			"args": inv.Args,
		})
		if cfg.Observer.Invoking != nil {
			cfg.Observer.Invoking(inv)
		}

		buildErr := cfg.Runner.Build(ctx, inv)
		if ClassifyBuildError(buildErr) == OutcomeLaunchFailure {
			cfg.Collector.IncToolLaunchFailure()
		} else {
			cfg.Collector.IncToolLaunchSuccess()
		}
		return buildErr
	}

	finalPath, err := commit.Run(
		req.OutputDir, req.BaseName, cfg.Naming.TempMarker(), req.FinalPath(), build,
		commit.WithLogger(p.logger), commit.WithMetrics(cfg.Collector),
	)
	if err != nil {
		fields := map[string]any{}
		if errors.Is(err, types.ErrBuildFailure) {
			fields["outcome"] = string(ClassifyBuildError(err))
		}
		return nil, p.fail(startedAt, "build failed", err, fields)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		// The image is committed; a failed stat only loses the size.
		p.logger.Warn("could not stat committed image", map[string]any{"error": err.Error()})
	}
	var imageBytes int64
	if info != nil {
		imageBytes = info.Size()
	}

	duration := p.now().Sub(startedAt)
	cfg.Collector.IncBuildSucceeded()
	cfg.Collector.SetImageBytes(imageBytes)
	cfg.Collector.SetDuration(duration)

	p.logger.Info("build committed", map[string]any{
		"final_path":  finalPath,
		"image_bytes": imageBytes,
		"duration_ms": duration.Milliseconds(),
	})

	return &types.BuildResult{
		BuildID:    cfg.BuildID,
		Request:    req,
		Estimate:   estimate,
		Invocation: inv,
		FinalPath:  finalPath,
		ImageBytes: imageBytes,
		StartedAt:  startedAt,
		Duration:   duration,
	}, nil
}

func (p *Pipeline) fail(startedAt time.Time, message string, err error, extra ...map[string]any) error {
	kind := types.KindOf(err)
	p.config.Collector.IncBuildFailed(kind)
	p.config.Collector.SetDuration(p.now().Sub(startedAt))

	fields := map[string]any{
		"kind":  kind,
		"error": err.Error(),
	}
	for _, m := range extra {
		for k, v := range m {
			fields[k] = v
		}
	}
	p.logger.Error(message, fields)

	if kind == "unknown" {
		return fmt.Errorf("%s: %w", message, err)
	}
	return err
}
