package paceman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/pacegrid/internal/domain/model"
)

// EventClient reads the event-scoped live runs from the backend. Entries
// may be placeholders with a pre-populated pb and no events.
type EventClient struct {
	client
	baseURL string
	eventID string
}

// NewEventClient creates a client for eventID on the backend at baseURL.
func NewEventClient(baseURL, eventID string, opts ...Option) *EventClient {
	if baseURL == "" {
		baseURL = DefaultBackendURL
	}
	return &EventClient{client: newClient(opts), baseURL: strings.TrimRight(baseURL, "/"), eventID: eventID}
}

type errorBody struct {
	Error string `json:"error"`
}

// LiveRuns fetches the event's live runs. A missing event yields
// ErrUnknownEvent.
func (c *EventClient) LiveRuns(ctx context.Context) ([]model.RawRun, error) {
	u := fmt.Sprintf("%s/paceman/event/%s/liveruns", c.baseURL, url.PathEscape(c.eventID))
	resp, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, c.eventID)
	}
	if !ok(resp.StatusCode) {
		return nil, statusError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var e errorBody
		if err := json.Unmarshal(trimmed, &e); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return nil, fmt.Errorf("%w: %s: %s", ErrUnknownEvent, c.eventID, e.Error)
	}

	var runs []model.RawRun
	if err := decode(bytes.NewReader(trimmed), &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
