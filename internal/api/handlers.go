package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pipeline"
	"github.com/sells-group/lead-engine/pkg/google"
)

type placesRequest struct {
	Query string `json:"query"`
}

type placesResponse struct {
	Places []google.Place `json:"places"`
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	var req placesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if s.deps.Places == nil {
		writeError(w, http.StatusInternalServerError, "places lookup is not configured: google.key is missing")
		return
	}

	found, err := s.deps.Places.Places(r.Context(), req.Query)
	if err != nil {
		zap.L().Warn("api: places lookup failed", zap.String("query", req.Query), zap.Error(err))
		writeError(w, upstreamStatus(err), err.Error())
		return
	}
	if found == nil {
		found = []google.Place{}
	}
	writeJSON(w, http.StatusOK, placesResponse{Places: found})
}

type scrapeRequest struct {
	Website   string `json:"website"`
	PlaceName string `json:"placeName"`
	Locality  string `json:"locality,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Website) == "" || strings.TrimSpace(req.PlaceName) == "" {
		writeError(w, http.StatusBadRequest, "website and placeName are required")
		return
	}
	if s.deps.Processor == nil {
		writeError(w, http.StatusInternalServerError, "extraction is not configured: no model tier has credentials")
		return
	}

	out, err := s.deps.Processor.Process(r.Context(), pipeline.Input{
		Website:   req.Website,
		PlaceName: req.PlaceName,
		Locality:  req.Locality,
	})
	if err != nil {
		var inErr *pipeline.InputError
		if errors.As(err, &inErr) {
			writeError(w, http.StatusBadRequest, inErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type leadsRequest struct {
	Query string `json:"query"`
}

// leadEvent is one line of the NDJSON stream.
type leadEvent struct {
	Event   string               `json:"event"`
	Lead    *model.Lead          `json:"lead,omitempty"`
	Summary *pipeline.RunSummary `json:"summary,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// handleLeads streams the run for a query as newline-delimited JSON: a
// "lead" event per lead update, then "done" with the summary, or "error".
func (s *Server) handleLeads(w http.ResponseWriter, r *http.Request) {
	var req leadsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if s.deps.Runner == nil {
		writeError(w, http.StatusInternalServerError, "lead runs are not configured")
		return
	}

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	started := false
	send := func(ev leadEvent) {
		if !started {
			w.Header().Set("Content-Type", "application/x-ndjson")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if err := enc.Encode(ev); err != nil {
			zap.L().Debug("api: stream write", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	summary, err := s.deps.Runner.Run(r.Context(), req.Query, func(l model.Lead) {
		send(leadEvent{Event: "lead", Lead: &l})
	})
	if err != nil {
		if !started {
			writeError(w, upstreamStatus(err), err.Error())
			return
		}
		send(leadEvent{Event: "error", Error: err.Error(), Summary: summary})
		return
	}
	send(leadEvent{Event: "done", Summary: summary})
}
