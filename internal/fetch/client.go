// internal/fetch/client.go

// Package fetch owns index- and detail-page retrieval for the run
// coordinator.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbrooks/land-tracker/pkg/logger"
)

// Browser-like headers; the target sites serve stripped-down markup to
// obvious bots.
var defaultHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// maxBodyBytes caps how much of a page gets read.
const maxBodyBytes = 10 * 1024 * 1024

// Client fetches pages with a per-request timeout and retries.
type Client struct {
	http      *http.Client
	userAgent string
	retries   int
	log       *logger.Logger
}

func NewClient(timeout time.Duration, retries int, userAgent string, log *logger.Logger) *Client {
	if retries < 1 {
		retries = 1
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
		retries:   retries,
		log:       log,
	}
}

// Page fetches one URL, retrying transient failures with linear backoff.
func (c *Client) Page(ctx context.Context, rawURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		page, err := c.page(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		c.log.Warnw("fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}
	return "", fmt.Errorf("fetching %s after %d attempts: %w", rawURL, c.retries, lastErr)
}

func (c *Client) page(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
