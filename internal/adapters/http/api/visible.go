package api

import (
	"errors"
	"net/http"

	"github.com/okian/pacegrid/internal/adapters/paceman"
	service "github.com/okian/pacegrid/internal/app"
	"github.com/okian/pacegrid/pkg/logger"
)

// VisibleHandler serves the visible set and manual refreshes.
type VisibleHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewVisibleHandler creates a new visible-set handler.
func NewVisibleHandler(deps Dependencies, log logger.Logger) *VisibleHandler {
	return &VisibleHandler{deps: deps, log: log}
}

// HandleVisible handles GET /visible.
func (h *VisibleHandler) HandleVisible(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toVisibleResponse(h.deps.Current()))
}

type refreshResponse struct {
	Changed bool `json:"changed"`
	visibleResponse
}

// HandleRefresh handles POST /refresh by running a poll immediately.
func (h *VisibleHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "refresh"
	res, err := h.deps.Poll(r.Context())
	if err != nil {
		err = classifyPollError(op, err)
		h.log.Warn(r.Context(), "refresh failed", logger.String("kind", string(KindOf(err))), logger.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Changed: res.Changed, visibleResponse: toVisibleResponse(h.deps.Current())})
}

func classifyPollError(op string, err error) error {
	switch {
	case errors.Is(err, service.ErrPollInProgress):
		return WrapKind(op, KindConflict, err)
	case errors.Is(err, paceman.ErrUnknownEvent):
		return WrapKind(op, KindNotFound, err)
	case errors.Is(err, service.ErrNoFeed):
		return WrapKind(op, KindInternal, err)
	default:
		return WrapKind(op, KindUpstream, err)
	}
}
