// Package filing implements the indexing pipeline and retrieval surface for
// annual filings.
package filing

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
	"github.com/bobmcallan/tenk/internal/search"
	"github.com/bobmcallan/tenk/internal/segment"
)

const previewLength = 500

// Service wires the EDGAR client, segmenter, and section store into the
// index/search/sections operations.
type Service struct {
	edgar     interfaces.EdgarClient
	store     interfaces.SectionStore
	segmenter *segment.Segmenter
	tracker   *statusTracker
	group     singleflight.Group
	logger    *common.Logger
}

// NewService creates a filing service.
func NewService(edgar interfaces.EdgarClient, store interfaces.SectionStore, segmenter *segment.Segmenter, logger *common.Logger) *Service {
	return &Service{
		edgar:     edgar,
		store:     store,
		segmenter: segmenter,
		tracker:   newStatusTracker(),
		logger:    logger,
	}
}

// Index runs the acquisition pipeline for a ticker: resolve, locate, fetch,
// segment, store. Concurrent calls for the same ticker are coalesced into
// one pipeline run whose result every caller receives. A ticker that is
// already stored short-circuits without touching the network.
func (s *Service) Index(ctx context.Context, ticker string) (*models.IndexResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required")
	}

	// The run is shared by every coalesced caller, so it must not die with
	// whichever request happened to start it. The EDGAR client's own
	// per-request timeouts still bound each step.
	runCtx := context.WithoutCancel(ctx)
	v, err, shared := s.group.Do(ticker, func() (interface{}, error) {
		return s.index(runCtx, ticker)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug().Str("ticker", ticker).Msg("Joined in-flight indexing run")
	}
	return v.(*models.IndexResult), nil
}

func (s *Service) index(ctx context.Context, ticker string) (*models.IndexResult, error) {
	stored, err := s.store.Has(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if stored {
		record, err := s.store.Index(ctx, ticker)
		if err != nil {
			return nil, err
		}
		result := &models.IndexResult{Ticker: ticker, Status: "already_indexed"}
		if record != nil {
			result.SectionsIndexed = len(record.Sections)
		}
		s.tracker.set(ticker, models.IndexStatusComplete, 100, "Filing already indexed")
		return result, nil
	}

	s.tracker.set(ticker, models.IndexStatusProcessing, 0, "Resolving company identifier")
	cik, err := s.edgar.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, s.fail(ticker, err)
	}

	s.tracker.set(ticker, models.IndexStatusProcessing, 25, "Locating latest annual filing")
	descriptor, err := s.edgar.LatestAnnualFiling(ctx, cik)
	if err != nil {
		return nil, s.fail(ticker, err)
	}

	s.tracker.set(ticker, models.IndexStatusProcessing, 50, "Fetching filing content")
	raw, err := s.edgar.FetchFiling(ctx, descriptor.FilingURL)
	if err != nil {
		return nil, s.fail(ticker, err)
	}

	s.tracker.set(ticker, models.IndexStatusProcessing, 75, "Segmenting and storing sections")
	sections := s.segmenter.Segment(raw, ticker, descriptor.FiscalYear())

	count, err := s.store.Add(ctx, ticker, sections)
	if err != nil {
		return nil, s.fail(ticker, err)
	}

	s.tracker.set(ticker, models.IndexStatusComplete, 100, fmt.Sprintf("Indexed %d sections", count))
	s.logger.Info().
		Str("ticker", ticker).
		Str("filing_date", descriptor.FilingDate).
		Int("sections", count).
		Msg("Filing indexed")

	return &models.IndexResult{
		Ticker:          ticker,
		Status:          "indexed",
		SectionsIndexed: count,
		FilingDate:      descriptor.FilingDate,
	}, nil
}

func (s *Service) fail(ticker string, err error) error {
	s.tracker.set(ticker, models.IndexStatusError, 0, err.Error())
	s.logger.Error().Err(err).Str("ticker", ticker).Msg("Indexing failed")
	return err
}

// Status reports the transient indexing status for a ticker.
func (s *Service) Status(ctx context.Context, ticker string) models.IndexingStatus {
	return s.tracker.get(ticker)
}

// Search ranks a ticker's stored sections against a free-text query.
func (s *Service) Search(ctx context.Context, query, ticker string, limit int) ([]models.SearchResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	sections, err := s.store.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return nil, fmt.Errorf("%w: %s has no indexed filing", models.ErrFilingNotFound, ticker)
	}
	return search.Rank(query, sections, limit), nil
}

// Sections lists a ticker's stored sections with truncated previews.
func (s *Service) Sections(ctx context.Context, ticker string) ([]models.SectionPreview, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	sections, err := s.store.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		return nil, fmt.Errorf("%w: %s has no indexed filing", models.ErrFilingNotFound, ticker)
	}

	previews := make([]models.SectionPreview, 0, len(sections))
	for _, sec := range sections {
		preview := sec.Content
		if len(preview) > previewLength {
			preview = preview[:previewLength] + "..."
		}
		previews = append(previews, models.SectionPreview{
			Name:           sec.Name,
			FiscalYear:     sec.FiscalYear,
			ContentPreview: preview,
		})
	}
	return previews, nil
}

// Indexed reports whether the ticker has stored sections.
func (s *Service) Indexed(ctx context.Context, ticker string) (bool, error) {
	return s.store.Has(ctx, strings.ToUpper(strings.TrimSpace(ticker)))
}

// Delete removes a ticker's stored sections.
func (s *Service) Delete(ctx context.Context, ticker string) (bool, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	deleted, err := s.store.Delete(ctx, ticker)
	if err != nil {
		return false, err
	}
	if deleted {
		s.tracker.set(ticker, models.IndexStatusNotStarted, 0, "")
		s.logger.Info().Str("ticker", ticker).Msg("Filing removed")
	}
	return deleted, nil
}

// ListTickers returns all indexed tickers, sorted.
func (s *Service) ListTickers(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

// Ensure Service implements FilingService
var _ interfaces.FilingService = (*Service)(nil)
