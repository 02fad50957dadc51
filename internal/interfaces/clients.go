// Package interfaces defines service contracts for Tenk
package interfaces

import (
	"context"

	"github.com/bobmcallan/tenk/internal/models"
)

// EdgarClient provides access to the SEC EDGAR registry: identifier
// resolution, filing location, and bounded content retrieval.
type EdgarClient interface {
	// ResolveCIK maps a ticker symbol to its zero-padded CIK.
	ResolveCIK(ctx context.Context, ticker string) (string, error)

	// LatestAnnualFiling finds the most recent 10-K (or 10-K/A) filing
	// for a CIK and synthesizes its content URL.
	LatestAnnualFiling(ctx context.Context, cik string) (*models.FilingDescriptor, error)

	// FetchFiling retrieves a filing body under byte and time bounds.
	// A mid-stream size overflow returns the partial bytes as success.
	FetchFiling(ctx context.Context, url string) ([]byte, error)

	// CompanyInfo retrieves registry metadata for a ticker.
	CompanyInfo(ctx context.Context, ticker string) (*models.CompanyInfo, error)

	// ListCompanies downloads the full ticker registry snapshot.
	ListCompanies(ctx context.Context) ([]models.CompanyEntry, error)
}

// ChunkFunc receives one incremental text fragment of a composed answer.
// Returning an error stops the stream.
type ChunkFunc func(chunk string) error

// ComposerClient produces AI-composed reports and chat answers from
// retrieved filing sections.
type ComposerClient interface {
	// AnalyzeFiling composes a structured audit from filing sections.
	AnalyzeFiling(ctx context.Context, info *models.CompanyInfo, sections []models.SearchResult) (*models.FilingAnalysis, error)

	// ChatStream composes an answer incrementally, invoking fn for each
	// text fragment. It must stop promptly when ctx is cancelled.
	ChatStream(ctx context.Context, message string, sections []models.SearchResult, history []models.ChatMessage, fn ChunkFunc) error
}
