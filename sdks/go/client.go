package sessiondesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is the SessionDesk SDK client. It communicates with the
// SessionDesk session API over HTTP with bearer-token authentication.
type Client struct {
	serverAddr string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a new SessionDesk SDK client.
// It reads configuration from SESSIONDESK_* environment variables by
// default. Options can be used to override the defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		serverAddr: os.Getenv("SESSIONDESK_SERVER_ADDR"),
		apiKey:     os.Getenv("SESSIONDESK_API_KEY"),
		timeout:    5 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: c.timeout,
		}
	}

	return c
}

// CreateSession creates a new session in the given region. The session
// starts in the pending status. Use WithIdempotencyKey to make retries
// safe.
func (c *Client) CreateSession(ctx context.Context, region string, opts ...CreateOption) (*Session, error) {
	var params createParams
	for _, opt := range opts {
		opt(&params)
	}

	body := map[string]string{"region": region}
	var sess Session
	headers := map[string]string{}
	if params.idempotencyKey != "" {
		headers["Idempotency-Key"] = params.idempotencyKey
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/sessions", headers, body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetSession fetches a single session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions lists sessions, optionally narrowed by filter.
// Results are ordered by creation time, oldest first.
func (c *Client) ListSessions(ctx context.Context, filter ListFilter) ([]Session, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Region != "" {
		q.Set("region", filter.Region)
	}
	path := "/api/v1/sessions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var sessions []Session
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateRegion moves a session to a different region.
func (c *Client) UpdateRegion(ctx context.Context, sessionID, region string) (*Session, error) {
	var sess Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID)
	body := map[string]string{"region": region}
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateStatus sets a session's status to any of the Status* values.
func (c *Client) UpdateStatus(ctx context.Context, sessionID, status string) (*Session, error) {
	var sess Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/status"
	body := map[string]string{"status": status}
	if err := c.doRequest(ctx, http.MethodPatch, path, nil, body, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Complete marks a session completed.
func (c *Client) Complete(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/complete"
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Fail marks a session failed.
func (c *Client) Fail(ctx context.Context, sessionID string) (*Session, error) {
	var sess Session
	path := "/api/v1/sessions/" + url.PathEscape(sessionID) + "/fail"
	if err := c.doRequest(ctx, http.MethodPost, path, nil, nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession deletes a session. The server keeps a recoverable
// snapshot, visible via ListDeletedSessions until it expires.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	path := "/api/v1/sessions/" + url.PathEscape(sessionID)
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListDeletedSessions lists unexpired deleted-session snapshots,
// most recently deleted first.
func (c *Client) ListDeletedSessions(ctx context.Context) ([]DeletedSession, error) {
	var deleted []DeletedSession
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/deleted-sessions", nil, nil, &deleted); err != nil {
		return nil, err
	}
	return deleted, nil
}

// Stats fetches session counts, optionally for a single region.
// Pass an empty region for the global view.
func (c *Client) Stats(ctx context.Context, region string) (*Stats, error) {
	path := "/api/v1/stats"
	if region != "" {
		path += "?region=" + url.QueryEscape(region)
	}
	var stats Stats
	if err := c.doRequest(ctx, http.MethodGet, path, nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// errorEnvelope is the server's error response shape.
type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

// doRequest performs an HTTP request to the SessionDesk server and decodes
// the response into result (unless nil). Non-2xx responses are returned as
// *APIError, or *RateLimitedError for rate-limit denials.
func (c *Client) doRequest(ctx context.Context, method, path string, headers map[string]string, body, result any) error {
	reqURL := strings.TrimRight(c.serverAddr, "/") + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return decodeAPIError(httpResp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

// decodeAPIError turns an error response into a typed error. Responses
// that don't carry the error envelope (proxies, panics) degrade to an
// APIError with the raw body as the message.
func decodeAPIError(statusCode int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Code == "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       fmt.Sprintf("http_%d", statusCode),
			Message:    strings.TrimSpace(string(body)),
		}
	}

	apiErr := APIError{
		StatusCode: statusCode,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		Details:    envelope.Error.Details,
	}

	if apiErr.Code == "resource_exhausted" {
		rle := &RateLimitedError{APIError: apiErr}
		if ms, ok := envelope.Error.Details["retryAfterMs"].(float64); ok {
			rle.RetryAfter = time.Duration(ms) * time.Millisecond
		}
		return rle
	}

	return &apiErr
}
