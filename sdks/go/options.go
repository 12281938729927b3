package sessiondesk

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithServerAddr sets the SessionDesk server address.
// If not set, defaults to the SESSIONDESK_SERVER_ADDR environment variable.
func WithServerAddr(addr string) Option {
	return func(c *Client) {
		c.serverAddr = addr
	}
}

// WithAPIKey sets the API key for authenticating with the server.
// If not set, defaults to the SESSIONDESK_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets the HTTP request timeout.
// If not set, defaults to 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
// This is useful for testing, proxying, or custom transport configurations.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// CreateOption customizes a CreateSession call.
type CreateOption func(*createParams)

type createParams struct {
	idempotencyKey string
}

// WithIdempotencyKey sends the given idempotency key with the create
// request. Repeating a create with the same key within the server's
// replay window returns the original session instead of a new one.
func WithIdempotencyKey(key string) CreateOption {
	return func(p *createParams) {
		p.idempotencyKey = key
	}
}
