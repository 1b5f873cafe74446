// Package api exposes the stored briefings over HTTP for dashboards and
// internal tooling.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
	"github.com/lokeshkumar99/ai-competition-scout/internal/store"
)

// filterAll is the wildcard value dashboards send for "no filter".
const filterAll = "All"

// Server serves the briefing search API.
type Server struct {
	store store.Store
}

// NewServer builds a Server over the given store.
func NewServer(st store.Store) *Server {
	return &Server{store: st}
}

// Router returns the HTTP handler with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/briefings/search", s.handleSearch)
	r.Get("/briefings/product-lines", s.handleProductLines)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch returns briefings matching the query parameters, newest
// first. competitor and product_line match case-insensitive substrings;
// "All" or an empty value matches everything.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	filter := store.SearchFilter{
		Competitor:  normalizeFilter(r.URL.Query().Get("competitor")),
		ProductLine: normalizeFilter(r.URL.Query().Get("product_line")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		filter.Limit = limit
	}

	briefings, err := s.store.SearchBriefings(r.Context(), filter)
	if err != nil {
		zap.L().Error("api: briefing search failed",
			zap.String("competitor", filter.Competitor),
			zap.String("product_line", filter.ProductLine),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}
	if briefings == nil {
		briefings = []model.Briefing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"briefings": briefings,
		"count":     len(briefings),
	})
}

// handleProductLines returns the closed product line enumeration so
// dashboards can build their filter dropdowns without hardcoding it.
func (s *Server) handleProductLines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"product_lines": model.AllProductLines(),
	})
}

func normalizeFilter(v string) string {
	if v == filterAll {
		return ""
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
