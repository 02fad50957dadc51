package gemini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tenk/internal/models"
)

func TestParseAnalysisPlainJSON(t *testing.T) {
	analysis, err := parseAnalysis(`{
		"financial_health_score": 72,
		"metrics": {"revenue": "$391B, up 2%"},
		"risk_factors": [{"category": "supply", "title": "Concentration", "description": "Single supplier", "severity": "high"}],
		"key_insights": ["Services growth"],
		"recommendations": ["Monitor margins"]
	}`)
	require.NoError(t, err)

	assert.Equal(t, 72.0, analysis.FinancialHealthScore)
	assert.Equal(t, "$391B, up 2%", analysis.Metrics["revenue"])
	require.Len(t, analysis.RiskFactors, 1)
	assert.Equal(t, "high", analysis.RiskFactors[0].Severity)
}

func TestParseAnalysisWrappedInProse(t *testing.T) {
	text := "Here is the analysis you requested:\n```json\n" +
		`{"financial_health_score": 55, "key_insights": ["flat revenue"]}` +
		"\n```\nLet me know if you need more."

	analysis, err := parseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, 55.0, analysis.FinancialHealthScore)
	assert.Equal(t, []string{"flat revenue"}, analysis.KeyInsights)
}

func TestParseAnalysisNoJSON(t *testing.T) {
	_, err := parseAnalysis("I cannot produce an analysis.")
	assert.Error(t, err)
}

func TestParseAnalysisMalformedJSON(t *testing.T) {
	_, err := parseAnalysis(`{"financial_health_score": }`)
	assert.Error(t, err)
}

func TestBuildAnalysisPrompt(t *testing.T) {
	info := &models.CompanyInfo{Ticker: "AAPL", Name: "Apple Inc.", SICDescription: "Electronic Computers"}
	sections := []models.SearchResult{
		{Name: "Business", FiscalYear: "2025", Content: "We make widgets."},
	}

	prompt := buildAnalysisPrompt(info, sections)
	assert.Contains(t, prompt, "Apple Inc. (AAPL)")
	assert.Contains(t, prompt, "Electronic Computers")
	assert.Contains(t, prompt, "--- Business (FY2025) ---")
	assert.Contains(t, prompt, "We make widgets.")
	assert.Contains(t, prompt, "financial_health_score")
}

func TestExcerptBoundsContent(t *testing.T) {
	long := strings.Repeat("x", maxSectionExcerpt+500)
	assert.Len(t, excerpt(long), maxSectionExcerpt)
	assert.Equal(t, "short", excerpt("short"))
}

func TestBuildChatContentsShape(t *testing.T) {
	sections := []models.SearchResult{
		{Name: "Risk Factors", Ticker: "AAPL", FiscalYear: "2025", Content: "Supply risk."},
	}
	history := []models.ChatMessage{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	}

	contents := buildChatContents("what are the risks", sections, history)

	// Preamble pair + two history turns + the new message
	require.Len(t, contents, 5)
	assert.Equal(t, "user", string(contents[0].Role))
	assert.Equal(t, "model", string(contents[1].Role))
	assert.Equal(t, "user", string(contents[2].Role))
	assert.Equal(t, "model", string(contents[3].Role))
	assert.Equal(t, "user", string(contents[4].Role))
}
