// Package webhook announces finished builds as a JSON POST.
//
// Every request carries the event type, build id and outcome as headers so
// receivers can route without decoding the body. The build id doubles as the
// Idempotency-Key: a retried delivery of the same build looks identical.
//
// Network errors, 5xx, 408 and 429 are retried with exponential backoff.
// Any other 4xx means the receiver rejected the payload and is final.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pithecene-io/ffpkg/adapter"
	"github.com/pithecene-io/ffpkg/iox"
	"github.com/pithecene-io/ffpkg/types"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Routing headers set on every delivery.
const (
	HeaderEvent          = "X-Ffpkg-Event"
	HeaderBuildID        = "X-Ffpkg-Build-Id"
	HeaderOutcome        = "X-Ffpkg-Outcome"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// maxErrorBody bounds how much of a rejected response is kept for the error.
const maxErrorBody = 512

// Config configures the webhook adapter.
type Config struct {
	// URL is the http(s) endpoint to POST to (required).
	URL string
	// Headers are extra headers, e.g. Authorization. They cannot override
	// the routing headers.
	Headers map[string]string
	// Timeout bounds each request (default 10s).
	Timeout time.Duration
	// Retries is the number of extra attempts after the first.
	Retries int
}

// Adapter posts build completion events to one endpoint.
type Adapter struct {
	endpoint  string
	headers   http.Header
	retries   int
	userAgent string
	client    *http.Client
}

// New validates cfg and returns a ready adapter. No request is made.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("webhook adapter requires a URL")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("webhook adapter: invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("webhook adapter: unsupported scheme %q (want http or https)", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("webhook adapter: URL %q has no host", cfg.URL)
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	return &Adapter{
		endpoint:  u.String(),
		headers:   headers,
		retries:   cfg.Retries,
		userAgent: types.UserAgent(),
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Publish delivers the event, retrying transient failures.
func (a *Adapter) Publish(ctx context.Context, event *adapter.BuildCompletedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	return adapter.Retry(ctx, "webhook", a.retries, func(ctx context.Context) error {
		return a.post(ctx, event, body)
	}, isRejected)
}

// StatusError is returned for non-2xx responses. Body holds the start of
// the response body, trimmed.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("endpoint returned %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Temporary reports whether a later attempt may succeed.
func (e *StatusError) Temporary() bool {
	switch {
	case e.Code == http.StatusRequestTimeout, e.Code == http.StatusTooManyRequests:
		return true
	case e.Code >= 400 && e.Code < 500:
		return false
	default:
		return true
	}
}

func isRejected(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && !statusErr.Temporary()
}

func (a *Adapter) post(ctx context.Context, event *adapter.BuildCompletedEvent, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	for k, vs := range a.headers {
		req.Header[k] = vs
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set(HeaderEvent, event.EventType)
	req.Header.Set(HeaderOutcome, event.Outcome)
	if event.BuildID != "" {
		req.Header.Set(HeaderBuildID, event.BuildID)
		req.Header.Set(HeaderIdempotencyKey, event.BuildID)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		iox.Drain(resp.Body)
		return nil
	}

	snippet := iox.Head(resp.Body, maxErrorBody)
	iox.Drain(resp.Body)
	return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}

// Close drops idle connections.
func (a *Adapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

var _ adapter.Adapter = (*Adapter)(nil)
