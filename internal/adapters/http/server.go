// Package http exposes the triage engine over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viridien/triage/internal/logging"
	"github.com/viridien/triage/pkg/domain"
)

// Engine is the triage surface the handlers need. An empty thread id on
// Triage starts a new thread; the returned view carries the generated id.
type Engine interface {
	Triage(ctx context.Context, threadID, ticketText, orderID string) (*domain.StateView, error)
	Review(ctx context.Context, threadID string, status domain.ReviewStatus, feedback string) (*domain.StateView, error)
	PendingReviews(ctx context.Context) ([]domain.PendingTicket, error)
}

// Server holds the handler dependencies.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetricsGatherer exposes the given registry on GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/triage/invoke", s.invoke)
	r.Route("/admin/review", func(r chi.Router) {
		r.Get("/", s.listPending)
		r.Post("/{threadID}", s.review)
	})

	return r
}

type invokeRequest struct {
	ThreadID   string `json:"thread_id"`
	TicketText string `json:"ticket_text"`
	OrderID    string `json:"order_id,omitempty"`
}

type reviewRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) invoke(w http.ResponseWriter, r *http.Request) {
	var body invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	// An absent thread_id starts a new thread; the engine mints the id.
	view, err := s.engine.Triage(r.Context(), body.ThreadID, body.TicketText, body.OrderID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) review(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	view, err := s.engine.Review(r.Context(), threadID, domain.ReviewStatus(body.Status), body.Feedback)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) listPending(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.engine.PendingReviews(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if tickets == nil {
		tickets = []domain.PendingTicket{}
	}
	s.writeJSON(w, http.StatusOK, tickets)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyTicket), errors.Is(err, domain.ErrInvalidReviewStatus):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrThreadNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNoPendingReview):
		s.writeError(w, http.StatusConflict, err)
	default:
		s.logger.Error("request failed", "err", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
