package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

func sampleSections(ticker string) []models.FilingSection {
	return []models.FilingSection{
		{Name: "Business", Content: "We make widgets.", FiscalYear: "2025", Ticker: ticker},
		{Name: "Risk Factors", Content: "Widgets may fail.", FiscalYear: "2025", Ticker: ticker},
	}
}

// storeFactories returns each backend under test behind its shared contract.
func storeFactories(t *testing.T) map[string]func() interfaces.SectionStore {
	return map[string]func() interfaces.SectionStore{
		"file": func() interfaces.SectionStore {
			fs, err := NewFileStore(common.NewSilentLogger(), t.TempDir())
			require.NoError(t, err)
			return fs
		},
		"memory": func() interfaces.SectionStore {
			return NewMemoryStore()
		},
	}
}

func TestStoreAddAndGet(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			count, err := store.Add(ctx, "ACME", sampleSections("ACME"))
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			sections, err := store.Get(ctx, "ACME")
			require.NoError(t, err)
			require.Len(t, sections, 2)
			assert.Equal(t, "Business", sections[0].Name)
			assert.Equal(t, "We make widgets.", sections[0].Content)
		})
	}
}

func TestStoreAddReplacesCollection(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			_, err := store.Add(ctx, "ACME", sampleSections("ACME"))
			require.NoError(t, err)

			replacement := []models.FilingSection{
				{Name: "MD&A", Content: "Revenue grew.", FiscalYear: "2026", Ticker: "ACME"},
			}
			count, err := store.Add(ctx, "ACME", replacement)
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			sections, err := store.Get(ctx, "ACME")
			require.NoError(t, err)
			require.Len(t, sections, 1)
			assert.Equal(t, "MD&A", sections[0].Name)

			record, err := store.Index(ctx, "ACME")
			require.NoError(t, err)
			require.NotNil(t, record)
			assert.Equal(t, []string{"MD&A"}, record.Sections)
			assert.Equal(t, "2026", record.FiscalYear)
		})
	}
}

func TestStoreCaseInsensitiveTicker(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			_, err := store.Add(ctx, "acme", sampleSections("ACME"))
			require.NoError(t, err)

			has, err := store.Has(ctx, "AcMe")
			require.NoError(t, err)
			assert.True(t, has)

			sections, err := store.Get(ctx, "acme")
			require.NoError(t, err)
			assert.Len(t, sections, 2)
		})
	}
}

func TestStoreGetAbsentTicker(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()

			sections, err := store.Get(context.Background(), "NOPE")
			require.NoError(t, err)
			assert.Nil(t, sections)

			record, err := store.Index(context.Background(), "NOPE")
			require.NoError(t, err)
			assert.Nil(t, record)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			_, err := store.Add(ctx, "ACME", sampleSections("ACME"))
			require.NoError(t, err)

			deleted, err := store.Delete(ctx, "ACME")
			require.NoError(t, err)
			assert.True(t, deleted)

			has, err := store.Has(ctx, "ACME")
			require.NoError(t, err)
			assert.False(t, has)

			// Deleting again reports absence, not an error
			deleted, err = store.Delete(ctx, "ACME")
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}

func TestStoreListSorted(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			for _, ticker := range []string{"MSFT", "AAPL", "GOOG"} {
				_, err := store.Add(ctx, ticker, sampleSections(ticker))
				require.NoError(t, err)
			}

			tickers, err := store.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, tickers)
		})
	}
}

func TestStoreRejectsInvalidSections(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()
			ctx := context.Background()

			// Ticker mismatch
			_, err := store.Add(ctx, "ACME", sampleSections("OTHER"))
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrStoreFailure))

			// Missing content
			_, err = store.Add(ctx, "ACME", []models.FilingSection{
				{Name: "Business", FiscalYear: "2025", Ticker: "ACME"},
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrStoreFailure))

			has, err := store.Has(ctx, "ACME")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestStoreEmptyAddIsNoop(t *testing.T) {
	for name, newStore := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := newStore()
			defer store.Close()

			count, err := store.Add(context.Background(), "ACME", nil)
			require.NoError(t, err)
			assert.Zero(t, count)

			has, err := store.Has(context.Background(), "ACME")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	logger := common.NewSilentLogger()
	ctx := context.Background()

	fs, err := NewFileStore(logger, dir)
	require.NoError(t, err)
	_, err = fs.Add(ctx, "ACME", sampleSections("ACME"))
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	reopened, err := NewFileStore(logger, dir)
	require.NoError(t, err)
	defer reopened.Close()

	has, err := reopened.Has(ctx, "ACME")
	require.NoError(t, err)
	assert.True(t, has)

	sections, err := reopened.Get(ctx, "ACME")
	require.NoError(t, err)
	assert.Len(t, sections, 2)
}

func TestFileStoreCorruptIndexStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFileName), []byte("{not json"), 0644))

	fs, err := NewFileStore(common.NewSilentLogger(), dir)
	require.NoError(t, err)
	defer fs.Close()

	tickers, err := fs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickers)
}

func TestFileStoreSanitizesTickerPath(t *testing.T) {
	fs, err := NewFileStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	defer fs.Close()

	path := fs.tickerPath("../ETC")
	assert.NotContains(t, filepath.Base(path), "..")
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Add(ctx, "ACME", sampleSections("ACME"))
	require.NoError(t, err)

	first, err := store.Get(ctx, "ACME")
	require.NoError(t, err)
	first[0].Content = "mutated"

	second, err := store.Get(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "We make widgets.", second[0].Content)
}
