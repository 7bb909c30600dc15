package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"bundle-console/internal/models"

	"github.com/google/uuid"
	"golang.org/x/net/http2"
)

// Sentinel errors for the snapshot fetch taxonomy.
var (
	// ErrSkipped is returned when a fetch is requested while another is
	// already in flight. It is not a failure; callers ignore it.
	ErrSkipped = errors.New("fetch already in flight")
	// ErrTimeout is returned when the snapshot fetch exceeds its
	// deadline and the in-flight request is aborted.
	ErrTimeout = errors.New("fetch deadline exceeded")
	// ErrFetchFailed wraps any other transport or server failure on
	// snapshot retrieval.
	ErrFetchFailed = errors.New("fetch failed")
)

// UpdateError reports a mutation the backend rejected. Reason carries
// the server-provided message when one was present.
type UpdateError struct {
	StatusCode int
	Reason     string
}

func (e *UpdateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("update rejected (HTTP %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("update rejected (HTTP %d)", e.StatusCode)
}

// Client talks to the bundle platform's REST backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	fetchTimeout time.Duration
	fetchLimit   int
	inFlight     atomic.Bool
}

func NewClient(cfg models.APIConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("API base URL cannot be empty")
	}
	if cfg.FetchTimeout <= 0 {
		return nil, fmt.Errorf("fetch timeout must be positive, got %v", cfg.FetchTimeout)
	}
	if cfg.FetchLimit <= 0 {
		return nil, fmt.Errorf("fetch limit must be positive, got %d", cfg.FetchLimit)
	}

	httpClient, err := createCustomHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:   httpClient,
		fetchTimeout: cfg.FetchTimeout,
		fetchLimit:   cfg.FetchLimit,
	}, nil
}

func createCustomHTTPClient() (*http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{Transport: tr}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}
	return nil
}

// newStatusError extracts the server-provided reason, if any, from an
// error response body.
func newStatusError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	reason := ""
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(body, &payload) == nil {
			reason = payload.Message
			if reason == "" {
				reason = payload.Error
			}
		}
	}
	return &UpdateError{StatusCode: resp.StatusCode, Reason: reason}
}
