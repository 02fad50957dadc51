// Package models defines data structures for Tenk
package models

import (
	"fmt"
	"strings"
)

// FilingDescriptor identifies the latest annual filing for a company.
// Constructed fresh per locate call and never persisted.
type FilingDescriptor struct {
	CIK             string `json:"cik"`
	AccessionNumber string `json:"accession_number"`
	FilingDate      string `json:"filing_date"`
	PrimaryDocument string `json:"primary_document"`
	FilingURL       string `json:"filing_url"`
}

// FiscalYear returns the four-digit year portion of the filing date.
func (d *FilingDescriptor) FiscalYear() string {
	if len(d.FilingDate) >= 4 {
		return d.FilingDate[:4]
	}
	return d.FilingDate
}

// FilingSection is one named section extracted from an annual filing.
type FilingSection struct {
	Name       string `json:"name"`
	Content    string `json:"content"`
	FiscalYear string `json:"fiscal_year"`
	Ticker     string `json:"ticker"`
}

// Validate checks the invariants enforced at the store boundary.
func (s *FilingSection) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("section name is required")
	}
	if s.Content == "" {
		return fmt.Errorf("section content is required")
	}
	if s.Ticker == "" {
		return fmt.Errorf("section ticker is required")
	}
	if s.Ticker != strings.ToUpper(s.Ticker) {
		return fmt.Errorf("section ticker must be uppercase: %s", s.Ticker)
	}
	return nil
}

// IndexRecord is the per-ticker summary kept alongside a section collection
// for cheap existence and listing checks.
type IndexRecord struct {
	Sections   []string `json:"sections"`
	FiscalYear string   `json:"fiscal_year"`
}

// SectionDocument is the persisted shape of a ticker's section collection.
type SectionDocument struct {
	Ticker   string          `json:"ticker"`
	Sections []FilingSection `json:"sections"`
}

// SearchResult is a scored section returned from retrieval.
type SearchResult struct {
	Content    string  `json:"content"`
	Name       string  `json:"name"`
	Ticker     string  `json:"ticker"`
	FiscalYear string  `json:"fiscal_year"`
	Relevance  float64 `json:"relevance"`
}

// SectionPreview is a truncated view of a stored section, used by the
// transparency listing endpoint.
type SectionPreview struct {
	Name           string `json:"name"`
	FiscalYear     string `json:"fiscal_year"`
	ContentPreview string `json:"content_preview"`
}

// IndexResult summarizes a completed indexing run.
type IndexResult struct {
	Ticker          string `json:"ticker"`
	Status          string `json:"status"` // "indexed" or "already_indexed"
	SectionsIndexed int    `json:"sections_indexed"`
	FilingDate      string `json:"filing_date"`
}

// Indexing status states. Transient, process-local, reset on restart.
const (
	IndexStatusNotStarted = "not_started"
	IndexStatusProcessing = "processing"
	IndexStatusComplete   = "complete"
	IndexStatusError      = "error"
)

// IndexingStatus is the observational per-ticker indexing state.
// It never gates access to the store.
type IndexingStatus struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}
