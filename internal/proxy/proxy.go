// Package proxy issues outbound requests through a pair of relay
// prefixes. Some upstream hosts sit behind a network allowlist: the
// primary relay may reject a target, in which case the request is
// retried once through the secondary relay. Exactly one fallback hop.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// maxBodySize caps how much of an upstream payload is read.
const maxBodySize = 4 << 20

// Config holds the relay prefixes and the marker string that
// identifies an allowlist rejection in a 200-level response body.
type Config struct {
	Primary         string
	Secondary       string
	RejectionMarker string
	Timeout         time.Duration
}

// Client performs outbound calls with one fallback hop. With no
// primary prefix configured it degrades to a plain direct client.
type Client struct {
	primary   string
	secondary string
	marker    string
	hc        *http.Client
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		marker:    cfg.RejectionMarker,
		hc:        &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Get fetches the target URL. The primary path is tried first; on a
// transport error, non-2xx status, or a rejection marker in the body,
// the secondary path is tried. The last attempt's error propagates.
func (c *Client) Get(ctx context.Context, target string) ([]byte, error) {
	if c.primary == "" {
		return c.fetch(ctx, target)
	}

	body, err := c.fetch(ctx, c.primary+url.QueryEscape(target))
	if err == nil && !c.rejected(body) {
		return body, nil
	}

	if err != nil {
		c.logger.Debug("primary path failed", zap.String("target", target), zap.Error(err))
	} else {
		c.logger.Debug("primary path rejected target", zap.String("target", target))
		err = fmt.Errorf("primary rejected %s", target)
	}

	if c.secondary == "" {
		return nil, err
	}

	body, err = c.fetch(ctx, c.secondary+url.QueryEscape(target))
	if err != nil {
		return nil, fmt.Errorf("secondary path: %w", err)
	}
	if c.rejected(body) {
		return nil, fmt.Errorf("secondary rejected %s", target)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/xml, text/xml, */*")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

func (c *Client) rejected(body []byte) bool {
	return c.marker != "" && strings.Contains(string(body), c.marker)
}
