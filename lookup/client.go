package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ErrUnreachable wraps transport failures: refused connections, DNS
// failures, timeouts.
var ErrUnreachable = errors.New("lookup service unreachable")

// DefaultTimeout bounds a single lookup when the caller's context has no
// deadline.
const DefaultTimeout = 5 * time.Second

// StatusError is returned when the service answers with an unexpected
// status code.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lookup service returned %s", e.Status)
}

// Finder resolves a URI through the lookup service.
type Finder interface {
	FindByURI(ctx context.Context, uri string) (string, error)
}

// Client talks to a lookup service over HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) ClientOption {
	return func(client *Client) {
		client.token = token
	}
}

// New creates a client for the service at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...ClientOption) (*Client, error) {
	parsed, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	// The Location header is the answer; never follow it.
	hc := *c.httpClient
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.httpClient = &hc

	return c, nil
}

// FindByURI returns the URI mapped to uri, or "" when the service has no
// mapping for it. The request is bounded by ctx, or by DefaultTimeout when
// ctx has no deadline.
func (c *Client) FindByURI(ctx context.Context, uri string) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	endpoint := c.baseURL.JoinPath("by_uri")
	q := endpoint.Query()
	q.Set("uri", uri)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Lookup request failed", "url", endpoint.String(), "error", err)
		return "", fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.logger.Debug("Lookup response",
		"url", endpoint.String(),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		return resp.Header.Get("Location"), nil
	default:
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
}
