package testfeed

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pacegrid/internal/adapters/http/api"
	"github.com/okian/pacegrid/internal/domain/model"
	"github.com/okian/pacegrid/pkg/logger"
)

const defaultRunners = 12

// Server serves the synthetic feed over HTTP using the upstream paths:
//
//	GET /api/ars/liveruns
//	GET /paceman/event/{id}/liveruns
//	GET /paceman/pb?username=
type Server struct {
	numRunners int
	seed       uint64
	eventID    string
	now        func() time.Time
	log        logger.Logger

	runners []Runner
}

// NewServer generates the runners and returns a ready server.
func NewServer(opts ...Option) *Server {
	s := &Server{
		numRunners: defaultRunners,
		seed:       1,
		now:        time.Now,
		log:        logger.Get().Named("testfeed"),
	}
	for _, opt := range opts {
		opt(s)
	}
	rnd := rand.New(rand.NewPCG(s.seed, s.seed))
	s.runners = Generate(s.numRunners, rnd, s.now())
	return s
}

// Runners returns the generated runners.
func (s *Server) Runners() []Runner {
	return append([]Runner(nil), s.runners...)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(api.RequestLogger(s.log))
	r.Get("/api/ars/liveruns", s.handleLiveRuns)
	r.Get("/paceman/event/{id}/liveruns", s.handleEventRuns)
	r.Get("/paceman/pb", s.handlePB)
	return r
}

// LiveRuns renders every runner at the current time.
func (s *Server) LiveRuns() []model.RawRun {
	now := s.now()
	out := make([]model.RawRun, len(s.runners))
	for i := range s.runners {
		out[i] = s.runners[i].RawRun(now)
	}
	return out
}

func (s *Server) handleLiveRuns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.LiveRuns())
}

// Event entries without progress carry the runner's PB, the way the
// event backend serves registered players who are not in a run.
func (s *Server) handleEventRuns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.eventID == "" || id != s.eventID {
		writeJSON(w, http.StatusOK, map[string]string{"error": "unknown event"})
		return
	}
	runs := s.LiveRuns()
	for i := range runs {
		if len(runs[i].EventList) == 0 {
			runs[i].PB = s.runners[i].PB
		}
	}
	writeJSON(w, http.StatusOK, runs)
}

type pbResponse struct {
	PB       *float64 `json:"pb"`
	Username string   `json:"username"`
}

func (s *Server) handlePB(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("username")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	resp := pbResponse{Username: name}
	for i := range s.runners {
		if strings.EqualFold(s.runners[i].Nickname, name) {
			resp.PB = s.runners[i].PB
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
