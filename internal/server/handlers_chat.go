package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bobmcallan/tenk/internal/models"
)

// ChatRequest is the body for POST /api/chat and /api/chat/stream.
type ChatRequest struct {
	Ticker  string               `json:"ticker"`
	Message string               `json:"message"`
	History []models.ChatMessage `json:"history,omitempty"`
	Limit   int                  `json:"limit,omitempty"`
}

// streamEvent is one newline-delimited JSON frame of a chat stream.
type streamEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// streamWriter emits newline-delimited JSON events, flushing after each so
// clients see content as it is composed.
type streamWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	enc     *json.Encoder
}

func newStreamWriter(w http.ResponseWriter) *streamWriter {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	return &streamWriter{w: w, flusher: flusher, enc: json.NewEncoder(w)}
}

func (sw *streamWriter) send(eventType string, data interface{}) error {
	if err := sw.enc.Encode(streamEvent{Type: eventType, Data: data}); err != nil {
		return err
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}

// validateChatRequest decodes and checks a chat request, resolving the
// retrieval context. Writes the error response itself on failure.
func (s *Server) validateChatRequest(w http.ResponseWriter, r *http.Request) (*ChatRequest, []models.SearchResult, bool) {
	var req ChatRequest
	if !DecodeJSON(w, r, &req) {
		return nil, nil, false
	}
	if strings.TrimSpace(req.Ticker) == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return nil, nil, false
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteError(w, http.StatusBadRequest, "message is required")
		return nil, nil, false
	}
	if s.app.Composer == nil {
		WriteError(w, http.StatusServiceUnavailable, "Chat is not available: no composer configured")
		return nil, nil, false
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.app.Config.Search.DefaultLimit
	}

	sections, err := s.app.FilingService.Search(r.Context(), req.Message, req.Ticker, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return nil, nil, false
	}
	return &req, sections, true
}

// handleChatStream handles POST /api/chat/stream. The response is a
// newline-delimited JSON stream: one sources event, content events as the
// answer is composed, then a terminal done or error event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, sections, ok := s.validateChatRequest(w, r)
	if !ok {
		return
	}

	sources := make([]models.SourceRef, 0, len(sections))
	for _, sec := range sections {
		sources = append(sources, models.SourceRef{Section: sec.Name, FiscalYear: sec.FiscalYear})
	}

	sw := newStreamWriter(w)
	if err := sw.send("sources", sources); err != nil {
		return
	}

	err := s.app.Composer.ChatStream(r.Context(), req.Message, sections, req.History, func(chunk string) error {
		return sw.send("content", chunk)
	})
	if err != nil {
		// The client may already be gone; best effort.
		sw.send("error", err.Error())
		s.logger.Warn().Err(err).Str("ticker", req.Ticker).Msg("Chat stream ended with error")
		return
	}

	sw.send("done", nil)
}

// handleChat handles POST /api/chat: the non-streaming variant, returning
// the full composed answer with its sources.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, sections, ok := s.validateChatRequest(w, r)
	if !ok {
		return
	}

	var sb strings.Builder
	err := s.app.Composer.ChatStream(r.Context(), req.Message, sections, req.History, func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	if err != nil {
		WriteError(w, http.StatusBadGateway, "Chat failed: "+err.Error())
		return
	}

	sources := make([]models.SourceRef, 0, len(sections))
	for _, sec := range sections {
		sources = append(sources, models.SourceRef{Section: sec.Name, FiscalYear: sec.FiscalYear})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"response": sb.String(),
		"sources":  sources,
	})
}

// handleChatSuggestions handles GET /api/chat/suggestions: starter
// questions keyed to the sections actually stored for the ticker.
func (s *Server) handleChatSuggestions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	record, err := s.app.Store.Index(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if record == nil {
		WriteError(w, http.StatusNotFound, ticker+" has no indexed filing")
		return
	}

	suggestionsBySection := map[string]string{
		"Business":               "What is the company's business model?",
		"Risk Factors":           "What are the biggest risks facing the company?",
		"MD&A":                   "How does management explain recent performance?",
		"Financial Statements":   "What do the financial statements show about profitability?",
		"Legal Proceedings":      "Is the company involved in any significant litigation?",
		"Properties":             "What facilities does the company operate?",
		"Executive Compensation": "How are executives compensated?",
	}

	var suggestions []string
	for _, name := range record.Sections {
		if q, ok := suggestionsBySection[name]; ok {
			suggestions = append(suggestions, q)
		}
	}
	if len(suggestions) == 0 {
		suggestions = []string{"Summarize this filing for me."}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":      ticker,
		"suggestions": suggestions,
	})
}
