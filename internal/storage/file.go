// Package storage provides section persistence with pluggable backends.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

const indexFileName = "index.json"

// FileStore persists one JSON document per ticker plus an index summary.
// Writes are atomic (temp file + rename); the in-memory index mirror is
// mutex-guarded so concurrent indexing requests never tear it.
type FileStore struct {
	basePath string
	logger   *common.Logger

	mu    sync.RWMutex
	index map[string]models.IndexRecord
}

// NewFileStore opens (or creates) a file-backed section store.
func NewFileStore(logger *common.Logger, basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", models.ErrStoreFailure, basePath, err)
	}

	fs := &FileStore{
		basePath: basePath,
		logger:   logger,
		index:    make(map[string]models.IndexRecord),
	}

	if err := fs.loadIndex(); err != nil {
		// A corrupt index is rebuilt lazily; existing ticker files remain
		// readable through Get.
		logger.Warn().Err(err).Msg("Index file unreadable, starting empty")
	}

	logger.Debug().Str("path", basePath).Int("tickers", len(fs.index)).Msg("FileStore opened")
	return fs, nil
}

// sanitizeKey makes a ticker safe for use as a filename.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

func (fs *FileStore) tickerPath(ticker string) string {
	return filepath.Join(fs.basePath, sanitizeKey(ticker)+".json")
}

func (fs *FileStore) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(fs.basePath, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, &fs.index)
}

// writeJSON marshals data and writes it atomically via temp file + rename.
func (fs *FileStore) writeJSON(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	tmpFile, err := os.CreateTemp(fs.basePath, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(jsonData); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func (fs *FileStore) saveIndexLocked() error {
	return fs.writeJSON(filepath.Join(fs.basePath, indexFileName), fs.index)
}

// Add stores a ticker's section collection, replacing any existing one.
// The collection document lands first; the index entry follows, so readers
// never observe an indexed ticker without its sections.
func (fs *FileStore) Add(ctx context.Context, ticker string, sections []models.FilingSection) (int, error) {
	ticker = strings.ToUpper(ticker)
	if len(sections) == 0 {
		return 0, nil
	}

	record, err := buildIndexRecord(ticker, sections)
	if err != nil {
		return 0, err
	}

	doc := models.SectionDocument{Ticker: ticker, Sections: sections}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.writeJSON(fs.tickerPath(ticker), doc); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
	}

	fs.index[ticker] = record
	if err := fs.saveIndexLocked(); err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
	}

	fs.logger.Debug().Str("ticker", ticker).Int("sections", len(sections)).Msg("Section collection stored")
	return len(sections), nil
}

// Get returns a ticker's section collection, or nil if absent.
func (fs *FileStore) Get(ctx context.Context, ticker string) ([]models.FilingSection, error) {
	ticker = strings.ToUpper(ticker)

	data, err := os.ReadFile(fs.tickerPath(ticker))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
	}

	var doc models.SectionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: corrupt document for %s: %v", models.ErrStoreFailure, ticker, err)
	}
	return doc.Sections, nil
}

// Has reports whether the ticker has an indexed collection.
func (fs *FileStore) Has(ctx context.Context, ticker string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.index[strings.ToUpper(ticker)]
	return ok, nil
}

// Delete removes a ticker's collection. Returns false if absent.
func (fs *FileStore) Delete(ctx context.Context, ticker string) (bool, error) {
	ticker = strings.ToUpper(ticker)

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.index[ticker]; !ok {
		return false, nil
	}

	os.Remove(fs.tickerPath(ticker))
	delete(fs.index, ticker)
	if err := fs.saveIndexLocked(); err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
	}
	return true, nil
}

// List returns all indexed tickers, sorted.
func (fs *FileStore) List(ctx context.Context) ([]string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	tickers := make([]string, 0, len(fs.index))
	for t := range fs.index {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

// Index returns the summary record for a ticker, or nil if absent.
func (fs *FileStore) Index(ctx context.Context, ticker string) (*models.IndexRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	record, ok := fs.index[strings.ToUpper(ticker)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (fs *FileStore) Close() error {
	return nil
}

// buildIndexRecord validates sections at the store boundary and derives
// the per-ticker summary.
func buildIndexRecord(ticker string, sections []models.FilingSection) (models.IndexRecord, error) {
	record := models.IndexRecord{Sections: make([]string, 0, len(sections))}
	for i := range sections {
		if sections[i].Ticker != ticker {
			return record, fmt.Errorf("%w: section ticker %q does not match %q", models.ErrStoreFailure, sections[i].Ticker, ticker)
		}
		if err := sections[i].Validate(); err != nil {
			return record, fmt.Errorf("%w: %v", models.ErrStoreFailure, err)
		}
		record.Sections = append(record.Sections, sections[i].Name)
	}
	record.FiscalYear = sections[0].FiscalYear
	return record, nil
}

// Ensure FileStore implements SectionStore
var _ interfaces.SectionStore = (*FileStore)(nil)
