package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	clientTimeout = 30 * time.Second

	// One transport-level retry; HTTP-level failures are not retried.
	transportRetries = 1

	rateLimitBurst = 1
)

// Client talks JSON over HTTPS to an e621-compatible board. Every call
// passes through a token bucket because the upstream bans clients that
// exceed its request rate.
type Client struct {
	baseURL    string
	username   string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Status)
	}

	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func New(
	baseURL string,
	username string,
	apiKey string,
	userAgent string,
	requestsPerSecond float64,
	log *slog.Logger,
) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username:   strings.TrimSpace(username),
		apiKey:     strings.TrimSpace(apiKey),
		userAgent:  strings.TrimSpace(userAgent),
		httpClient: &http.Client{Timeout: clientTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), rateLimitBurst),
		log:        log,
	}
}

// BaseURL returns the board root, for building user-facing links.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Authenticated reports whether the client carries account credentials.
// Favorites and votes need them; browsing does not.
func (c *Client) Authenticated() bool {
	return c.username != "" && c.apiKey != ""
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, out)
}

func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	out any,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) != 0 {
		endpoint += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= transportRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		if c.Authenticated() {
			req.SetBasicAuth(c.username, c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("perform request: %w", err)
			if ctx.Err() != nil {
				return lastErr
			}

			c.log.WarnContext(ctx, "Request failed, retrying",
				"error", err,
				"method", method,
				"path", path,
				"attempt", attempt+1)
			continue
		}

		return c.handleResponse(ctx, resp, path, out)
	}

	return lastErr
}

func (c *Client) handleResponse(
	ctx context.Context,
	resp *http.Response,
	path string,
	out any,
) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"path", path)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{
			Status:  resp.StatusCode,
			Message: apiErrorMessage(body),
		}
	}

	if out == nil {
		return nil
	}

	if err = decodeBody(body, out); err != nil {
		return fmt.Errorf("decode response (path = %s): %w", path, err)
	}

	return nil
}

func decodeBody(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	return json.Unmarshal(trimmed, out)
}

// getList fetches a list endpoint. Empty result sets come back as a
// wrapper object ({"tags":[]}) instead of a bare array, so both shapes
// are accepted.
func getList[T any](
	c *Client,
	ctx context.Context,
	path string,
	query url.Values,
	wrapperKey string,
) ([]T, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("decode wrapper (path = %s): %w", path, err)
		}

		inner, ok := wrapper[wrapperKey]
		if !ok {
			return nil, nil
		}
		trimmed = bytes.TrimSpace(inner)
	}

	var list []T
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("decode list (path = %s): %w", path, err)
	}

	return list, nil
}

func apiErrorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Reason  string `json:"reason"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if payload.Message != "" {
		return payload.Message
	}

	return payload.Reason
}
