package server

import (
	"net/http"
	"strconv"
	"strings"
)

// handleCompanySearch handles GET /api/company/search?q=...&limit=...
func (s *Server) handleCompanySearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		WriteError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	matches, err := s.app.CompanyService.Search(r.Context(), query, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": matches,
	})
}

// handleCompanyInfo handles GET /api/company/{ticker}.
func (s *Server) handleCompanyInfo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/company/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	info, err := s.app.Edgar.CompanyInfo(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// handleSearch handles GET /api/search?q=...&ticker=...&limit=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	limit := s.app.Config.Search.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	results, err := s.app.FilingService.Search(r.Context(), query, ticker, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  strings.ToUpper(ticker),
		"query":   query,
		"results": results,
	})
}

// handleTickerList handles GET /api/tickers.
func (s *Server) handleTickerList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tickers, err := s.app.FilingService.ListTickers(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if tickers == nil {
		tickers = []string{}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"tickers": tickers})
}

// handleTickerDelete handles DELETE /api/tickers/{ticker}.
func (s *Server) handleTickerDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	ticker := PathParam(r, "/api/tickers/", "")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	deleted, err := s.app.FilingService.Delete(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !deleted {
		WriteError(w, http.StatusNotFound, strings.ToUpper(ticker)+" has no indexed filing")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  strings.ToUpper(ticker),
		"deleted": true,
	})
}
