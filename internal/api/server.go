// Package api exposes the places lookup, the single-business extraction and
// the streaming lead run over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pipeline"
	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/pkg/google"
)

const maxBodyBytes = 1 << 20

// PlacesLookup returns places with a website for a query.
type PlacesLookup interface {
	Places(ctx context.Context, query string) ([]google.Place, error)
}

// LeadRunner runs a whole query. See pipeline.Runner.
type LeadRunner interface {
	Run(ctx context.Context, query string, emit func(model.Lead)) (*pipeline.RunSummary, error)
}

// Deps are the handlers' collaborators. A nil dependency means its provider
// is not configured; the matching endpoint answers 500.
type Deps struct {
	Places    PlacesLookup
	Processor pipeline.Processor
	Runner    LeadRunner
	Breakers  *resilience.Registry
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router returns the HTTP handler. allowedOrigins configures CORS.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/places", s.handlePlaces)
		r.Post("/scrape", s.handleScrape)
		r.Post("/leads", s.handleLeads)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.deps.Breakers != nil {
		resp["breakers"] = s.deps.Breakers.Snapshot()
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// upstreamStatus maps a provider failure to a response status: the
// provider's own 4xx/5xx when it has one, 502 otherwise.
func upstreamStatus(err error) int {
	if code := resilience.StatusOf(err); code >= 400 && code <= 599 {
		return code
	}
	return http.StatusBadGateway
}
