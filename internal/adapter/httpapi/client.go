package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
)

const (
	DefaultRetryBudget = 2
	DefaultTimeout     = 30 * time.Second
	RequestIDHeader    = "X-Request-ID"

	maxResponseBytes = 16 << 20
)

// Client performs authenticated JSON calls against the listings API and
// retries transient failures with exponential backoff.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	tokens      domain.TokenSource
	retries     int
	backoffUnit time.Duration
	logger      *logger.Logger
	metrics     *metrics.MetricsManager
	newID       func() string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryBudget sets how many times a transient failure is retried.
func WithRetryBudget(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retries = n
		}
	}
}

// WithBackoffUnit scales the delays: retry k waits 2^k units.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffUnit = d
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithMetrics(m *metrics.MetricsManager) Option {
	return func(c *Client) { c.metrics = m }
}

func WithRequestIDs(gen func() string) Option {
	return func(c *Client) { c.newID = gen }
}

// NewClient builds a client for baseURL. tokens may be nil, in which case
// requests go out without an Authorization header.
func NewClient(baseURL string, tokens domain.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q: scheme and host required", baseURL)
	}
	c := &Client{
		baseURL:     u,
		tokens:      tokens,
		retries:     DefaultRetryBudget,
		backoffUnit: time.Second,
		logger:      logger.NewNop(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(DefaultTimeout)
	}
	return c, nil
}

// NewHTTPClient returns an http.Client whose transport records spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Do sends ep with an optional JSON body and decodes a 2xx response into
// out. Errors are *domain.APIError except for local encoding failures and
// context cancellation.
func (c *Client) Do(ctx context.Context, ep Endpoint, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", ep.Name, err)
		}
	}

	start := time.Now()
	attempt := 0
	operation := func() error {
		attempt++
		err := c.attempt(ctx, ep, payload, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.APIRetry(ep.Name)
		c.logger.Warn("Client.Do: retrying request", "endpoint", ep.Name, "attempt", attempt, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.retries)), ctx)
	err := backoff.RetryNotify(operation, policy, notify)
	c.metrics.APIRequest(ep.Name, outcome(err), time.Since(start))
	if err != nil {
		c.logger.Debug("Client.Do: request failed", "endpoint", ep.Name, "attempts", attempt, "error", err)
	}
	return err
}

// newBackOff yields 2, 4, 8, ... units between attempts.
func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * c.backoffUnit
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = 1024 * c.backoffUnit
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

func (c *Client) attempt(ctx context.Context, ep Endpoint, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, ep.Method, c.resolve(ep), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", ep.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, c.newID())
	if c.tokens != nil {
		token, err := c.tokens.IDToken(ctx)
		switch {
		case err != nil:
			c.logger.Debug("Client.attempt: no id token, sending unauthenticated", "endpoint", ep.Name, "error", err)
		case token != "":
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransport(err)
	}
	return decodeResponse(resp.StatusCode, data, out)
}

func (c *Client) resolve(ep Endpoint) string {
	u := c.baseURL.JoinPath(ep.Path)
	if len(ep.Query) > 0 {
		u.RawQuery = ep.Query.Encode()
	}
	return u.String()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind.String()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "canceled"
	}
	return "error"
}
