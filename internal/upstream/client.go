// Package upstream forwards admitted requests to the provider API and
// normalizes transport failures into gateway error kinds.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds the upstream round trip. The gateway does not
// stream, so a generous but explicit limit replaces relying on transport
// defaults.
const DefaultTimeout = 120 * time.Second

// Result is a completed upstream exchange. Body is the verbatim JSON
// payload; upstream 4xx/5xx business errors are passed through, not
// reinterpreted.
type Result struct {
	StatusCode  int
	Body        json.RawMessage
	ContentType string
}

// Client talks to the upstream provider API. There are no retries; a
// request runs to completion or transport failure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates an upstream client. A non-positive timeout falls back to
// DefaultTimeout.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Forward sends the request body verbatim to <base>/v1<endpoint> and
// returns the upstream status and parse-checked JSON body. Failures are
// *types.GatewayError values from the upstream kinds.
func (c *Client) Forward(ctx context.Context, method, endpoint string, body []byte) (*Result, error) {
	return c.do(ctx, method, endpoint, body, true)
}

// ForwardRaw is Forward without the JSON body check, for endpoints that
// return file content (JSONL, binary) rather than a JSON document.
func (c *Client) ForwardRaw(ctx context.Context, method, endpoint string, body []byte) (*Result, error) {
	return c.do(ctx, method, endpoint, body, false)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, wantJSON bool) (*Result, error) {
	url := c.baseURL + "/v1" + endpoint

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.classifyTransportError(err)
	}

	if wantJSON && !json.Valid(raw) {
		c.logger.Error("invalid upstream response body",
			"endpoint", endpoint, "status", resp.StatusCode)
		return nil, errInvalidUpstreamResponse()
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        raw,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// classifyTransportError separates timeouts from other transport failures.
func (c *Client) classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		c.logger.Error("upstream request timed out", "error", err)
		return errUpstreamTimeout()
	}
	c.logger.Error("upstream request failed", "error", err)
	return errUpstreamTransport()
}
