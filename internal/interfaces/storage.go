// Package interfaces defines service contracts for Tenk
package interfaces

import (
	"context"

	"github.com/bobmcallan/tenk/internal/models"
)

// SectionStore persists section collections keyed by uppercase ticker.
// Add replaces a ticker's entire collection atomically: readers observe
// either the previous collection or the new one, never a mix. When two
// writers race on the same ticker, the store holds whichever Add completed
// last (last-write-wins).
type SectionStore interface {
	// Add validates and stores a collection, replacing any existing one.
	// Returns the number of sections stored.
	Add(ctx context.Context, ticker string, sections []models.FilingSection) (int, error)

	// Get returns a ticker's collection, or nil if the ticker is unknown.
	Get(ctx context.Context, ticker string) ([]models.FilingSection, error)

	// Has reports whether the ticker has an indexed collection.
	Has(ctx context.Context, ticker string) (bool, error)

	// Delete removes a ticker's collection. Returns false if absent.
	Delete(ctx context.Context, ticker string) (bool, error)

	// List returns all indexed tickers in sorted order.
	List(ctx context.Context) ([]string, error)

	// Index returns the summary record for a ticker, or nil if absent.
	Index(ctx context.Context, ticker string) (*models.IndexRecord, error)

	Close() error
}
