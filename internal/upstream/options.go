package upstream

import (
	"net/http"
	"time"
)

// Option -.
type Option func(*Client)

// Timeout bounds every upstream call, including reading the body.
func Timeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// MaxResponseBytes -.
func MaxResponseBytes(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseBytes = n
		}
	}
}

// UserAgent -.
func UserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Transport replaces the underlying round tripper.
func Transport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

// BasicAuth sends the same credentials to every upstream.
func BasicAuth(username, password string) Option {
	return func(c *Client) {
		if username == "" {
			return
		}
		c.http.Transport = NewBasicAuthTransport(username, password, c.http.Transport)
	}
}
