package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/ffpkg/cli/config"
	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/iox"
	"github.com/pithecene-io/ffpkg/lode"
	"github.com/pithecene-io/ffpkg/manifest"
	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/types"
)

// publishBuild copies a committed build into the configured lode store.
// It is a no-op while publish.path is empty. Failures become warnings.
func publishBuild(ctx context.Context, s *settings, status *render.Status, result *types.BuildResult, collector *metrics.Collector) {
	if s.cfg.Publish.Path == "" {
		return
	}

	storagePath, err := publish(ctx, s.cfg.Publish, result, collector)
	if err != nil {
		collector.IncPublishFailure()
		s.logger.Warn("publish failed", map[string]any{"error": err, "kind": lode.KindName(err)})
		status.Warn("image was built but could not be published: %v", err)
		if hint := lode.Hint(err); hint != "" {
			status.Detail("Hint", hint)
		}
		return
	}

	collector.IncPublishSuccess()
	s.logger.Info("published image", map[string]any{"storage_path": storagePath, "backend": s.cfg.Publish.Backend})
	status.Detail("Published", storagePath)
}

func publish(ctx context.Context, pc config.PublishConfig, result *types.BuildResult, collector *metrics.Collector) (string, error) {
	m, err := manifest.FromResult(result, time.Now())
	if err != nil {
		return "", fmt.Errorf("build manifest: %w", err)
	}

	lcfg := lode.Config{
		Dataset: lode.DefaultDataset,
		Source:  result.Request.BaseName,
		Day:     lode.DeriveDay(result.StartedAt),
		BuildID: result.BuildID,
	}

	p, err := newPublisher(ctx, pc, lcfg)
	if err != nil {
		return "", err
	}
	defer iox.DiscardClose(p)

	if err := p.Publish(ctx, result.FinalPath, m, collector.Snapshot(), time.Now()); err != nil {
		return "", err
	}
	return lcfg.FilePath(m.Name), nil
}

func newPublisher(ctx context.Context, pc config.PublishConfig, lcfg lode.Config) (*lode.Publisher, error) {
	switch pc.Backend {
	case config.BackendS3:
		return lode.NewS3Publisher(ctx, lcfg, s3Config(pc))
	default:
		return lode.NewPublisher(lcfg, pc.Path)
	}
}

func s3Config(pc config.PublishConfig) lode.S3Config {
	c := lode.S3ConfigFromPath(pc.Path)
	c.Region = pc.Region
	c.Endpoint = pc.Endpoint
	c.UsePathStyle = pc.S3PathStyle
	return c
}
