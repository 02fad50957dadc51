package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/tenk/internal/clients/edgar"
	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/models"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Indexing and analysis
	mux.HandleFunc("/api/analysis/index", s.handleIndex)
	mux.HandleFunc("/api/analysis/", s.routeAnalysis)

	// Chat
	mux.HandleFunc("/api/chat/stream", s.handleChatStream)
	mux.HandleFunc("/api/chat/suggestions", s.handleChatSuggestions)
	mux.HandleFunc("/api/chat", s.handleChat)

	// Company registry
	mux.HandleFunc("/api/company/search", s.handleCompanySearch)
	mux.HandleFunc("/api/company/", s.handleCompanyInfo)

	// Retrieval
	mux.HandleFunc("/api/search", s.handleSearch)

	// Indexed tickers
	mux.HandleFunc("/api/tickers/", s.handleTickerDelete)
	mux.HandleFunc("/api/tickers", s.handleTickerList)
}

// routeAnalysis dispatches /api/analysis/{...} paths:
//
//	GET /api/analysis/index/{ticker}/status
//	GET /api/analysis/{ticker}
//	GET /api/analysis/{ticker}/sections
func (s *Server) routeAnalysis(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analysis/")

	if strings.HasPrefix(path, "index/") {
		s.handleIndexStatus(w, r)
		return
	}
	if strings.HasSuffix(path, "/sections") {
		s.handleSections(w, r)
		return
	}
	s.handleAnalysis(w, r)
}

// handleHealth handles GET /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "tenk",
	})
}

// handleVersion handles GET /api/version.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// writeServiceError maps pipeline errors to HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *edgar.APIError

	switch {
	case errors.Is(err, models.ErrTickerNotFound), errors.Is(err, models.ErrFilingNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, models.ErrFilingTooLarge):
		WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, models.ErrTimeout):
		WriteError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &apiErr):
		WriteError(w, http.StatusBadGateway, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
