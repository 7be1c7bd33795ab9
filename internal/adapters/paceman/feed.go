package paceman

import (
	"context"

	"github.com/okian/pacegrid/internal/domain/model"
)

// FeedClient reads the public live-runs feed.
type FeedClient struct {
	client
	url string
}

// NewFeedClient creates a client for the feed at url.
func NewFeedClient(url string, opts ...Option) *FeedClient {
	if url == "" {
		url = DefaultFeedURL
	}
	return &FeedClient{client: newClient(opts), url: url}
}

// LiveRuns fetches the feed.
func (c *FeedClient) LiveRuns(ctx context.Context) ([]model.RawRun, error) {
	resp, err := c.get(ctx, c.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !ok(resp.StatusCode) {
		return nil, statusError(resp)
	}
	var runs []model.RawRun
	if err := decode(resp.Body, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
