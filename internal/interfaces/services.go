// Package interfaces defines service contracts for Tenk
package interfaces

import (
	"context"

	"github.com/bobmcallan/tenk/internal/models"
)

// FilingService owns the indexing pipeline and the retrieval surface.
type FilingService interface {
	// Index acquires, segments, and stores a ticker's latest annual
	// filing. Concurrent calls for the same ticker share one in-flight
	// operation and receive its result.
	Index(ctx context.Context, ticker string) (*models.IndexResult, error)

	// Status reports the transient indexing status for a ticker.
	Status(ctx context.Context, ticker string) models.IndexingStatus

	// Search ranks a ticker's stored sections against a free-text query.
	Search(ctx context.Context, query, ticker string, limit int) ([]models.SearchResult, error)

	// Sections lists stored sections with content previews.
	Sections(ctx context.Context, ticker string) ([]models.SectionPreview, error)

	// Indexed reports whether the ticker has stored sections.
	Indexed(ctx context.Context, ticker string) (bool, error)

	// Delete removes a ticker's stored sections. Returns false if absent.
	Delete(ctx context.Context, ticker string) (bool, error)

	// ListTickers returns all indexed tickers, sorted.
	ListTickers(ctx context.Context) ([]string, error)
}

// CompanyService resolves free-text company queries to tickers.
type CompanyService interface {
	// Search matches companies by name or ticker.
	Search(ctx context.Context, query string, limit int) ([]models.CompanyMatch, error)
}
