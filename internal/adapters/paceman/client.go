// Package paceman talks to the live-runs feed and the PB/event backend.
package paceman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/pacegrid/internal/domain/model"
)

// Defaults.
const (
	DefaultFeedURL    = "https://paceman.gg/api/ars/liveruns"
	DefaultBackendURL = "http://localhost:3001"
	defaultTimeout    = 10 * time.Second
	maxErrorBody      = 512
)

// LiveRunsSource returns the current live-run feed.
type LiveRunsSource interface {
	LiveRuns(ctx context.Context) ([]model.RawRun, error)
}

type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newClient(opts []Option) client {
	c := client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// get performs a GET and returns the response for the caller to decode.
func (c *client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("%w: %d %s", ErrUpstreamStatus, resp.StatusCode, string(body))
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func ok(status int) bool { return status >= 200 && status < 300 }
