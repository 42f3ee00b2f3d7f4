// Package client talks to a running headlinescore API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds each request when no WithTimeout option is given.
const DefaultTimeout = 10 * time.Second

// maxErrorBody is how much of a failed response body APIError keeps.
const maxErrorBody = 512

type scoreRequest struct {
	Headlines []string `json:"headlines"`
}

type scoreResponse struct {
	Labels []string `json:"labels"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type problem struct {
	Detail string `json:"detail"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Detail     string // problem detail, when the body was a problem document
	Body       string // truncated raw body
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned status %d: %s", e.StatusCode, msg)
}

// Client is an HTTP client for the scoring API. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a client for the service at baseURL, e.g. http://localhost:8006.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScoreHeadlines submits one batch and returns its labels, aligned with
// headlines.
func (c *Client) ScoreHeadlines(ctx context.Context, headlines []string) ([]string, error) {
	if headlines == nil {
		headlines = []string{}
	}
	body, err := json.Marshal(scoreRequest{Headlines: headlines})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp scoreResponse
	if err := c.do(ctx, http.MethodPost, "/score_headlines", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Labels) != len(headlines) {
		return nil, fmt.Errorf("service returned %d labels for %d headlines", len(resp.Labels), len(headlines))
	}
	return resp.Labels, nil
}

// Status returns the service's readiness string, "OK" when serving.
func (c *Client) Status(ctx context.Context) (string, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func newAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/problem+json") {
		var p problem
		if json.Unmarshal(raw, &p) == nil {
			apiErr.Detail = p.Detail
		}
	}
	return apiErr
}
