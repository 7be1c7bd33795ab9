// Package api exposes the visible set over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pacegrid/internal/adapters/http/swagger"
	"github.com/okian/pacegrid/internal/adapters/mq/queue"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/internal/domain/pbcache"
	"github.com/okian/pacegrid/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Current returns the visible set.
	Current() model.Update
	// Poll runs a reconciliation cycle now.
	Poll(ctx context.Context) (model.Result, error)
	// CacheStats reports PB cache effectiveness.
	CacheStats() pbcache.Stats
}

// Subscriber hands out update queues for push clients.
type Subscriber interface {
	Subscribe() (*queue.InMemoryQueue, func())
}

// Server wires HTTP routes for the API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	visibleHandler *VisibleHandler
	wsHandler      *WSHandler
	log            logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, subs Subscriber) *Server {
	log := logger.Get().Named("api")
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider, deps),
		visibleHandler: NewVisibleHandler(deps, log),
		wsHandler:      NewWSHandler(deps, subs, log),
		log:            log,
	}
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.log))

	r.With(MetricsMiddleware("healthz")).Get("/healthz", s.healthHandler.HandleHealth)
	r.With(MetricsMiddleware("stats")).Get("/stats", s.statsHandler.HandleStats)
	r.With(MetricsMiddleware("pb_cache")).Get("/pb-cache", s.statsHandler.HandlePBCache)
	r.With(MetricsMiddleware("visible")).Get("/visible", s.visibleHandler.HandleVisible)
	r.With(MetricsMiddleware("refresh")).Post("/refresh", s.visibleHandler.HandleRefresh)
	r.Get("/ws", s.wsHandler.HandleWS)
	swagger.Register(r)
	return r
}

// visibleResponse is the read shape of the visible set.
type visibleResponse struct {
	Sequence  uint64                `json:"sequence"`
	Visible   []model.NormalizedRun `json:"visible"`
	Focused   []string              `json:"focused"`
	UpdatedAt *time.Time            `json:"updated_at,omitempty"`
}

func toVisibleResponse(u model.Update) visibleResponse { //nolint:gocritic // hugeParam: read-only
	resp := visibleResponse{Sequence: u.Sequence, Visible: u.Visible, Focused: u.Focused}
	if resp.Visible == nil {
		resp.Visible = []model.NormalizedRun{}
	}
	if resp.Focused == nil {
		resp.Focused = []string{}
	}
	if !u.At.IsZero() {
		at := u.At
		resp.UpdatedAt = &at
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	kind := KindOf(err)
	status := statusFor(kind)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: string(kind), Message: msg})
}
