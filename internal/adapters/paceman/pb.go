package paceman

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// PBClient looks up personal bests through the backend proxy.
type PBClient struct {
	client
	baseURL string
}

// NewPBClient creates a PB client for the backend at baseURL.
func NewPBClient(baseURL string, opts ...Option) *PBClient {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return &PBClient{client: newClient(opts), baseURL: strings.TrimRight(baseURL, "/")}
}

// PBResponse is the proxy response body.
type PBResponse struct {
	PB       *float64 `json:"pb"`
	Username string   `json:"username"`
	Error    string   `json:"error,omitempty"`
}

// Lookup returns the PB in seconds for username, or nil when the runner has
// none.
func (c *PBClient) Lookup(ctx context.Context, username string) (*float64, error) {
	u := c.baseURL + "/paceman/pb?username=" + url.QueryEscape(username)
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, statusError(resp)
	}
	var body PBResponse
	if err := decode(resp.Body, &body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrPBUnavailable, username, body.Error)
	}
	return body.PB, nil
}
