package models

// CompanyEntry is one row of the SEC ticker registry snapshot.
type CompanyEntry struct {
	CIK    string `json:"cik"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// CompanyInfo holds registry metadata for a filer.
type CompanyInfo struct {
	CIK            string `json:"cik"`
	Name           string `json:"name"`
	Ticker         string `json:"ticker"`
	SIC            string `json:"sic"`
	SICDescription string `json:"sic_description"`
	FiscalYearEnd  string `json:"fiscal_year_end"`
}

// CompanyMatch is a scored result from company name search.
type CompanyMatch struct {
	Ticker string  `json:"ticker"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
}
