package paceman

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Option configures a client.
type Option func(*client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout. The client is copied first so
// an *http.Client passed through WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithRateLimit caps requests per second; a non-positive rate disables
// limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}
