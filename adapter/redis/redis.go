// Package redis announces finished builds on Redis.
//
// Every event is PUBLISHed as JSON. The channel name may carry {source} and
// {outcome} placeholders so subscribers can pattern-subscribe, e.g.
// "ffpkg:{outcome}:{source}" with PSUBSCRIBE ffpkg:failure:*.
//
// When Stream is set the same payload is also appended with XADD, so
// consumers that were offline can catch up. Both commands go out in one
// pipeline per attempt.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/ffpkg/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "ffpkg:build_completed"

// DefaultTimeout is the default per-attempt timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// DefaultStreamMaxLen caps the stream when Stream is set and StreamMaxLen is not.
const DefaultStreamMaxLen = 1000

// Config configures the Redis adapter.
type Config struct {
	// URL is the connection URL (required), redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel, optionally templated with {source}
	// and {outcome}. Defaults to DefaultChannel.
	Channel string
	// Stream, if set, is a stream key that also receives each event.
	Stream string
	// StreamMaxLen approximately caps Stream. Ignored without Stream.
	StreamMaxLen int64
	// Timeout bounds each attempt (default 5s).
	Timeout time.Duration
	// Retries is the number of extra attempts after the first.
	Retries int
}

// Adapter publishes build completion events through one client.
type Adapter struct {
	channel      string
	stream       string
	streamMaxLen int64
	timeout      time.Duration
	retries      int
	client       *goredis.Client
}

// New validates cfg and returns an adapter. It does not dial.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	if cfg.StreamMaxLen < 0 {
		return nil, fmt.Errorf("stream max length must be >= 0, got %d", cfg.StreamMaxLen)
	}

	a := &Adapter{
		channel:      cfg.Channel,
		stream:       cfg.Stream,
		streamMaxLen: cfg.StreamMaxLen,
		timeout:      cfg.Timeout,
		retries:      cfg.Retries,
		client:       goredis.NewClient(opts),
	}
	if a.channel == "" {
		a.channel = DefaultChannel
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.stream != "" && a.streamMaxLen == 0 {
		a.streamMaxLen = DefaultStreamMaxLen
	}
	return a, nil
}

// ChannelFor expands the channel template for event.
// Empty fields expand to "unknown" so the channel never has a blank segment.
func (a *Adapter) ChannelFor(event *adapter.BuildCompletedEvent) string {
	return strings.NewReplacer(
		"{source}", orUnknown(event.Source),
		"{outcome}", orUnknown(event.Outcome),
	).Replace(a.channel)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Publish sends the event, retrying until it lands or retries run out.
// A closed client is final.
func (a *Adapter) Publish(ctx context.Context, event *adapter.BuildCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	channel := a.ChannelFor(event)

	return adapter.Retry(ctx, "redis", a.retries, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		_, err := a.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
			p.Publish(ctx, channel, body)
			if a.stream != "" {
				p.XAdd(ctx, &goredis.XAddArgs{
					Stream: a.stream,
					MaxLen: a.streamMaxLen,
					Approx: true,
					Values: map[string]any{
						"build_id": event.BuildID,
						"outcome":  event.Outcome,
						"event":    string(body),
					},
				})
			}
			return nil
		})
		return err
	}, func(err error) bool {
		return errors.Is(err, goredis.ErrClosed)
	})
}

// Close releases the client's connections.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
