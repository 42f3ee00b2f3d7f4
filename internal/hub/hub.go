// Package hub downloads pretrained model files from a Hugging Face Hub
// compatible file server.
package hub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultURL is the public Hugging Face Hub.
const DefaultURL = "https://huggingface.co"

// Client fetches files from model repositories, with optional Bearer auth
// and retries on 429/5xx.
type Client struct {
	baseURL    string
	token      string
	revision   string
	retryBase  time.Duration
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode int
	URL        string
	Body       string // first 512 bytes
	retryAfter string // Retry-After header value for 429s
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hub: GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the per-request timeout. Model files are large; the
// default is 10 minutes. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRevision pins the repository revision (branch, tag or commit).
// Default: "main".
func WithRevision(rev string) Option {
	return func(c *Client) { c.revision = rev }
}

// WithRetryBase sets the first backoff delay; later retries double it.
// Default: 1s.
func WithRetryBase(d time.Duration) Option {
	return func(c *Client) { c.retryBase = d }
}

// New creates a Client for baseURL. An empty token sends no Authorization
// header, which is enough for public repositories.
func New(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		revision:  "main",
		retryBase: time.Second,
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const maxRetries = 3

// FileURL returns the download URL of file inside repo.
func (c *Client) FileURL(repo, file string) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s", c.baseURL, repo, url.PathEscape(c.revision), file)
}

// Download fetches file from repo and stores it at dest, creating parent
// directories. The body is streamed to a temp file next to dest and renamed
// into place, so dest is either absent or complete. Retries on 429 (honoring
// Retry-After) and 5xx with exponential backoff, at most 3 times.
func (c *Client) Download(ctx context.Context, repo, file, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("hub: %w", err)
	}
	fileURL := c.FileURL(repo, file)

	var lastErr *APIError
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoffDelay(attempt, lastErr)
			slog.Warn("hub download retry", "url", fileURL, "attempt", attempt, "wait", wait, "status", lastErr.StatusCode)
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}

		apiErr, err := c.fetch(ctx, fileURL, dest)
		if err != nil {
			return err
		}
		if apiErr == nil {
			return nil
		}
		if apiErr.StatusCode != http.StatusTooManyRequests && apiErr.StatusCode < 500 {
			return apiErr
		}
		lastErr = apiErr
	}
	return lastErr
}

// fetch performs one GET. A non-2xx response is returned as *APIError in the
// first result so the caller can decide whether to retry.
func (c *Client) fetch(ctx context.Context, fileURL, dest string) (*APIError, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hub: GET %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			URL:        fileURL,
			Body:       string(body),
			retryAfter: resp.Header.Get("Retry-After"),
		}, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		if copyErr != nil {
			return nil, fmt.Errorf("hub: GET %s: %w", fileURL, copyErr)
		}
		return nil, fmt.Errorf("hub: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("hub: %w", err)
	}
	slog.Info("hub download complete", "url", fileURL, "bytes", n, "path", dest)
	return nil, nil
}

// backoffDelay returns the wait before a retry attempt.
func (c *Client) backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.retryBase << (attempt - 1)
}
