// Package cafeapi is a thin client for the remote café REST API:
// product catalog, order records, image upload, and cookie-session
// auth. Every call is bounded by a fixed timeout; a timed-out call is
// reported like any other failed call and is never retried.
package cafeapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds every remote call unless overridden.
const DefaultTimeout = 8 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Config holds the client configuration.
type Config struct {
	// BaseURL is the root of the remote API, e.g. "https://coffee-api.example.com".
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// TracerProvider and MeterProvider instrument outbound requests.
	// When nil the otel globals are used.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client talks to the remote café API. The embedded cookie jar carries
// the session cookie set by Login, so authenticated endpoints work the
// same way the browser's credentialed fetches did.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient validates the configuration and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported base URL scheme %q", base.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var otelOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: otelhttp.NewTransport(http.DefaultTransport, otelOpts...),
		},
	}, nil
}

// StatusError reports a non-2xx response from the remote API.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Status)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// IsTimeout reports whether err was caused by the per-request timeout
// or a cancelled deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// endpoint joins path segments onto the base URL.
func (c *Client) endpoint(segments ...string) string {
	return c.base.JoinPath(segments...).String()
}

// do issues the request and returns the response body for 2xx statuses.
// Non-2xx responses become a StatusError carrying a body excerpt.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}

// get issues a GET to the endpoint built from segments.
func (c *Client) get(ctx context.Context, segments ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(segments...), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return c.do(req)
}

// postJSON issues a POST with a JSON body to the endpoint built from
// segments.
func (c *Client) postJSON(ctx context.Context, body []byte, segments ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(segments...), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// putJSON issues a PUT with a JSON body to the endpoint built from
// segments.
func (c *Client) putJSON(ctx context.Context, body []byte, segments ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint(segments...), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// postForm issues a POST with a form-encoded body.
func (c *Client) postForm(ctx context.Context, form url.Values, segments ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint(segments...), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

// delete issues a DELETE to the endpoint built from segments.
func (c *Client) delete(ctx context.Context, segments ...string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint(segments...), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	return c.do(req)
}
