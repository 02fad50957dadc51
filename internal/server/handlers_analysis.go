package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/tenk/internal/models"
)

// maxAnalysisSections caps how many stored sections feed one analysis.
const maxAnalysisSections = 8

// IndexRequest is the body for POST /api/analysis/index.
type IndexRequest struct {
	Ticker string `json:"ticker"`
}

// handleIndex handles POST /api/analysis/index.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req IndexRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	result, err := s.app.FilingService.Index(r.Context(), req.Ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleIndexStatus handles GET /api/analysis/index/{ticker}/status.
func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/analysis/index/", "/status")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	status := s.app.FilingService.Status(r.Context(), ticker)
	WriteJSON(w, http.StatusOK, status)
}

// handleSections handles GET /api/analysis/{ticker}/sections.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := PathParam(r, "/api/analysis/", "/sections")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	previews, err := s.app.FilingService.Sections(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   strings.ToUpper(ticker),
		"sections": previews,
	})
}

// handleAnalysis handles GET /api/analysis/{ticker}: a composed audit of the
// stored filing. Requires the composer; indexes on demand if needed.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(PathParam(r, "/api/analysis/", ""))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required in path")
		return
	}

	if s.app.Composer == nil {
		WriteError(w, http.StatusServiceUnavailable, "Analysis is not available: no composer configured")
		return
	}

	ctx := r.Context()

	indexed, err := s.app.FilingService.Indexed(ctx, ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !indexed {
		if _, err := s.app.FilingService.Index(ctx, ticker); err != nil {
			s.writeServiceError(w, err)
			return
		}
	}

	info, err := s.app.Edgar.CompanyInfo(ctx, ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	// Empty query returns sections in stored order with full content.
	sections, err := s.app.FilingService.Search(ctx, "", ticker, maxAnalysisSections)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	analysis, err := s.app.Composer.AnalyzeFiling(ctx, info, sections)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Analysis failed: "+err.Error())
		return
	}

	record, err := s.app.Store.Index(ctx, ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	report := models.AnalysisReport{
		Ticker:               ticker,
		CompanyName:          info.Name,
		FinancialHealthScore: analysis.FinancialHealthScore,
		Metrics:              analysis.Metrics,
		RiskFactors:          analysis.RiskFactors,
		KeyInsights:          analysis.KeyInsights,
		Recommendations:      analysis.Recommendations,
	}
	if record != nil {
		report.SectionsIndexed = len(record.Sections)
		report.FilingDate = record.FiscalYear
	}
	WriteJSON(w, http.StatusOK, report)
}
