package models

// RiskFactor is one AI-identified risk from a filing.
type RiskFactor struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low | medium | high
}

// FilingAnalysis is the structured audit produced by the AI composer.
type FilingAnalysis struct {
	FinancialHealthScore float64           `json:"financial_health_score"`
	Metrics              map[string]string `json:"metrics"`
	RiskFactors          []RiskFactor      `json:"risk_factors"`
	KeyInsights          []string          `json:"key_insights"`
	Recommendations      []string          `json:"recommendations"`
}

// AnalysisReport is the full analysis response for a ticker.
type AnalysisReport struct {
	Ticker               string            `json:"ticker"`
	CompanyName          string            `json:"company_name"`
	FilingDate           string            `json:"filing_date"`
	FinancialHealthScore float64           `json:"financial_health_score"`
	Metrics              map[string]string `json:"metrics"`
	RiskFactors          []RiskFactor      `json:"risk_factors"`
	KeyInsights          []string          `json:"key_insights"`
	Recommendations      []string          `json:"recommendations"`
	SectionsIndexed      int               `json:"sections_indexed"`
}

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SourceRef names a section used as context for a composed answer.
type SourceRef struct {
	Section    string `json:"section"`
	FiscalYear string `json:"fiscal_year"`
}
