package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/ffpkg/adapter"
	"github.com/pithecene-io/ffpkg/adapter/redis"
	"github.com/pithecene-io/ffpkg/adapter/webhook"
	"github.com/pithecene-io/ffpkg/cli/config"
	"github.com/pithecene-io/ffpkg/cli/render"
	"github.com/pithecene-io/ffpkg/iox"
	"github.com/pithecene-io/ffpkg/metrics"
	"github.com/pithecene-io/ffpkg/types"
)

// notifyBuild announces the finished build once, success or failure.
// It is a no-op while notify.url is empty. Failures become warnings.
func notifyBuild(ctx context.Context, s *settings, status *render.Status, req *types.BuildRequest, result *types.BuildResult, buildErr error, collector *metrics.Collector) {
	if s.cfg.Notify.URL == "" {
		return
	}

	a, err := newNotifier(s.cfg.Notify)
	if err != nil {
		collector.IncNotifyFailure()
		status.Warn("notification not sent: %v", err)
		return
	}
	defer iox.DiscardClose(a)

	snap := collector.Snapshot()
	event := adapter.NewBuildCompletedEvent(req, result, buildErr, &snap, time.Now())
	if err := a.Publish(ctx, event); err != nil {
		collector.IncNotifyFailure()
		s.logger.Warn("notification failed", map[string]any{"error": err, "type": s.cfg.Notify.Type})
		status.Warn("notification not sent: %v", err)
		return
	}

	collector.IncNotifySuccess()
	s.logger.Debug("notification sent", map[string]any{"type": s.cfg.Notify.Type, "outcome": event.Outcome})
}

func newNotifier(nc config.NotifyConfig) (adapter.Adapter, error) {
	switch nc.Type {
	case config.NotifyRedis:
		retries := redis.DefaultRetries
		if nc.Retries != nil {
			retries = *nc.Retries
		}
		return redis.New(redis.Config{
			URL:          nc.URL,
			Channel:      nc.Channel,
			Stream:       nc.Stream,
			StreamMaxLen: nc.StreamMaxLen,
			Timeout:      nc.Timeout.Duration,
			Retries:      retries,
		})
	case config.NotifyWebhook:
		retries := webhook.DefaultRetries
		if nc.Retries != nil {
			retries = *nc.Retries
		}
		return webhook.New(webhook.Config{
			URL:     nc.URL,
			Headers: nc.Headers,
			Timeout: nc.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown notify type %q", nc.Type)
	}
}
