// Package api exposes search runs over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"autovalor/metrics"
	"autovalor/models"
	"autovalor/services"
	"autovalor/utils"
)

// Searcher runs one complete search.
type Searcher interface {
	Search(ctx context.Context, opts models.SearchOptions) *services.Result
}

// PageFetcher returns the raw extractions of one marketplace result page.
type PageFetcher interface {
	FetchPage(ctx context.Context, query string, page, firstIndex int) ([]models.ItemResult, error)
}

// debugItems is how many raw extractions /api/debug-html returns.
const debugItems = 3

// Server represents the HTTP API server.
type Server struct {
	addr         string
	searcher     Searcher
	rates        services.RateResolver
	debug        PageFetcher
	defaultPages int
	maxPages     int
	server       *http.Server
	logger       *utils.Logger
}

// NewServer creates a new HTTP API server. debug may be nil, which disables
// /api/debug-html.
func NewServer(addr string, searcher Searcher, rates services.RateResolver, debug PageFetcher, defaultPages int, logger *utils.Logger) *Server {
	if defaultPages < 1 {
		defaultPages = 3
	}
	return &Server{
		addr:         addr,
		searcher:     searcher,
		rates:        rates,
		debug:        debug,
		defaultPages: defaultPages,
		maxPages:     10,
		logger:       logger,
	}
}

// Handler returns the routed handler with CORS and request metrics applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/cars", s.handleCars)
	mux.HandleFunc("/api/dollar-rate", s.handleDollarRate)
	mux.HandleFunc("/api/debug-html", s.handleDebugHTML)
	mux.Handle("/metrics", metrics.Handler())
	return withCORS(withMetrics(mux))
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("[api] Listening on %s", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		s.logger.Info("[api] Stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleCars handles /api/cars.
func (s *Server) handleCars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		s.sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := models.SearchOptions{Query: query}
	var err error
	if opts.Pages, err = intParam(q.Get("pages"), s.defaultPages); err != nil || opts.Pages < 1 || opts.Pages > s.maxPages {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("pages must be between 1 and %d", s.maxPages))
		return
	}
	if opts.IncludeML, err = boolParam(q.Get("include_ml"), true); err != nil {
		s.sendError(w, http.StatusBadRequest, "include_ml must be a boolean")
		return
	}
	if opts.IncludeKavak, err = boolParam(q.Get("include_kavak"), false); err != nil {
		s.sendError(w, http.StatusBadRequest, "include_kavak must be a boolean")
		return
	}
	if opts.IncludeKavakWeb, err = boolParam(q.Get("include_kavak_web"), false); err != nil {
		s.sendError(w, http.StatusBadRequest, "include_kavak_web must be a boolean")
		return
	}

	minUSD, err := intParam(q.Get("min_usd"), 0)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "min_usd must be an integer")
		return
	}
	maxUSD, err := intParam(q.Get("max_usd"), 0)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "max_usd must be an integer")
		return
	}

	res := s.searcher.Search(r.Context(), opts)
	s.sendJSON(w, http.StatusOK, services.FilterByUSD(res.Cars, int64(minUSD), int64(maxUSD)))
}

// handleDollarRate handles /api/dollar-rate.
func (s *Server) handleDollarRate(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]float64{"dollar_rate": s.rates.Resolve(r.Context())})
}

type debugItem struct {
	Index  int            `json:"index"`
	Car    *models.RawCar `json:"car,omitempty"`
	Error  string         `json:"error,omitempty"`
	Fields []string       `json:"field_errors,omitempty"`
}

// handleDebugHTML handles /api/debug-html: the first raw extractions of the
// first marketplace page, with the attribute texts they were parsed from.
func (s *Server) handleDebugHTML(w http.ResponseWriter, r *http.Request) {
	if s.debug == nil {
		s.sendError(w, http.StatusNotFound, "debug source not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		s.sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	items, err := s.debug.FetchPage(r.Context(), query, 0, 0)
	if err != nil {
		s.logger.Warn("[api] debug fetch failed: %v", err)
		s.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	out := make([]debugItem, 0, debugItems)
	for _, item := range items[:min(debugItems, len(items))] {
		d := debugItem{Index: item.Index, Car: item.Car}
		if item.Err != nil {
			d.Error = item.Err.Error()
		}
		if item.Car != nil {
			for _, ferr := range item.Car.FieldErrors {
				d.Fields = append(d.Fields, ferr.Error())
			}
		}
		out = append(out, d)
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"total_items": len(items),
		"items":       out,
	})
}

// sendJSON sends a JSON response.
func (s *Server) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("[api] Failed to encode JSON response: %v", err)
	}
}

func (s *Server) sendError(w http.ResponseWriter, status int, msg string) {
	s.sendJSON(w, status, map[string]string{"detail": msg})
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func boolParam(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}
