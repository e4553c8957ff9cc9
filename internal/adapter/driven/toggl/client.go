// Package toggl implements the TimeTracker port against the Toggl Track API v9.
package toggl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/timeguru/internal/domain/port/driven"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.track.toggl.com/api/v9"

// createdWith identifies this program to the API when creating entries.
const createdWith = "timeguru"

// Compile-time interface satisfaction check.
var _ driven.TimeTracker = (*Client)(nil)

// Client talks to the Toggl API with HTTP basic auth ("<token>:api_token").
// It classifies failures into the driven error taxonomy and never retries.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// NewClient creates a Client with the following transport stack:
//  1. httpcache (conditional request caching for GETs, private to this client)
//  2. net/http default transport
//
// A fresh cache per client keeps responses from leaking across tokens.
func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cacheTransport := httpcache.NewMemoryCacheTransport()

	return &Client{
		http: &http.Client{
			Transport: cacheTransport,
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// Intended for tests against an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// do sends one request and decodes a JSON response into out (which may be nil).
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.SetBasicAuth(c.token, "api_token")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &driven.RemoteError{Kind: driven.ErrTransient, Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	slog.Debug("toggl request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) == "1",
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if err := classify(op, resp); err != nil {
		return err
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return &driven.RemoteError{Kind: driven.ErrTransient, Op: op, StatusCode: resp.StatusCode, Message: "truncated response"}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// classify maps a non-2xx response to the error taxonomy.
func classify(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	rerr := &driven.RemoteError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(snippet)),
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		rerr.Kind = driven.ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		rerr.Kind = driven.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		rerr.Kind = driven.ErrRateLimited
		rerr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		rerr.Kind = driven.ErrTransient
	default:
		rerr.Kind = driven.ErrRejected
	}
	return rerr
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
