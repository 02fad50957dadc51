// Package surrealdb implements the section store on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

const sectionTable = "filing_sections"

// sectionRecord is the persisted shape: one record per ticker holding the
// whole collection, so replacement is a single atomic UPSERT.
type sectionRecord struct {
	Ticker     string                 `json:"ticker"`
	FiscalYear string                 `json:"fiscal_year"`
	Names      []string               `json:"names"`
	Sections   []models.FilingSection `json:"sections"`
}

// Store implements interfaces.SectionStore on SurrealDB.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects to SurrealDB and ensures the section table exists.
func NewStore(logger *common.Logger, cfg common.SurrealDBConfig) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", sectionTable)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", sectionTable, err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB section store initialized")

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Add(ctx context.Context, ticker string, sections []models.FilingSection) (int, error) {
	ticker = strings.ToUpper(ticker)
	if len(sections) == 0 {
		return 0, nil
	}

	names := make([]string, 0, len(sections))
	for i := range sections {
		if sections[i].Ticker != ticker {
			return 0, fmt.Errorf("%w: section ticker %q does not match %q", models.ErrStoreFailure, sections[i].Ticker, ticker)
		}
		if err := sections[i].Validate(); err != nil {
			return 0, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
		}
		names = append(names, sections[i].Name)
	}

	record := sectionRecord{
		Ticker:     ticker,
		FiscalYear: sections[0].FiscalYear,
		Names:      names,
		Sections:   sections,
	}

	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{
		"rid":  surrealmodels.NewRecordID(sectionTable, ticker),
		"data": record,
	}
	if _, err := surrealdb.Query[[]sectionRecord](ctx, s.db, sql, vars); err != nil {
		return 0, fmt.Errorf("%w: failed to upsert sections: %v", models.ErrStoreFailure, err)
	}

	s.logger.Debug().Str("ticker", ticker).Int("sections", len(sections)).Msg("Section collection stored")
	return len(sections), nil
}

func (s *Store) Get(ctx context.Context, ticker string) ([]models.FilingSection, error) {
	record, err := s.selectRecord(ctx, ticker)
	if err != nil || record == nil {
		return nil, err
	}
	return record.Sections, nil
}

func (s *Store) Has(ctx context.Context, ticker string) (bool, error) {
	record, err := s.selectRecord(ctx, ticker)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

func (s *Store) Delete(ctx context.Context, ticker string) (bool, error) {
	ticker = strings.ToUpper(ticker)

	record, err := s.selectRecord(ctx, ticker)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}

	sql := "DELETE $rid"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(sectionTable, ticker)}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return false, fmt.Errorf("%w: failed to delete sections: %v", models.ErrStoreFailure, err)
	}
	return true, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	type tickerResult struct {
		Ticker string `json:"ticker"`
	}

	sql := fmt.Sprintf("SELECT ticker FROM %s", sectionTable)
	results, err := surrealdb.Query[[]tickerResult](ctx, s.db, sql, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list tickers: %v", models.ErrStoreFailure, err)
	}

	var tickers []string
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			tickers = append(tickers, r.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (s *Store) Index(ctx context.Context, ticker string) (*models.IndexRecord, error) {
	record, err := s.selectRecord(ctx, ticker)
	if err != nil || record == nil {
		return nil, err
	}
	return &models.IndexRecord{Sections: record.Names, FiscalYear: record.FiscalYear}, nil
}

func (s *Store) Close() error {
	s.db.Close(context.Background())
	return nil
}

func (s *Store) selectRecord(ctx context.Context, ticker string) (*sectionRecord, error) {
	ticker = strings.ToUpper(ticker)
	record, err := surrealdb.Select[sectionRecord](ctx, s.db, surrealmodels.NewRecordID(sectionTable, ticker))
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to select sections: %v", models.ErrStoreFailure, err)
	}
	if record == nil || record.Ticker == "" {
		return nil, nil
	}
	return record, nil
}

// isNotFoundError reports whether a driver error means the record is absent
// rather than the query having failed.
func isNotFoundError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no record")
}

// Ensure Store implements SectionStore
var _ interfaces.SectionStore = (*Store)(nil)
