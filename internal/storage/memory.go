package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

// MemoryStore is an in-process SectionStore for tests and ephemeral
// deployments. Collections are copied on write and on read so callers can
// never mutate stored state through a shared slice.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string][]models.FilingSection
	index map[string]models.IndexRecord
}

// NewMemoryStore creates an empty in-memory section store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string][]models.FilingSection),
		index: make(map[string]models.IndexRecord),
	}
}

func (m *MemoryStore) Add(ctx context.Context, ticker string, sections []models.FilingSection) (int, error) {
	ticker = strings.ToUpper(ticker)
	if len(sections) == 0 {
		return 0, nil
	}

	record, err := buildIndexRecord(ticker, sections)
	if err != nil {
		return 0, err
	}

	copied := make([]models.FilingSection, len(sections))
	copy(copied, sections)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[ticker] = copied
	m.index[ticker] = record
	return len(sections), nil
}

func (m *MemoryStore) Get(ctx context.Context, ticker string) ([]models.FilingSection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.docs[strings.ToUpper(ticker)]
	if !ok {
		return nil, nil
	}
	copied := make([]models.FilingSection, len(stored))
	copy(copied, stored)
	return copied, nil
}

func (m *MemoryStore) Has(ctx context.Context, ticker string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.index[strings.ToUpper(ticker)]
	return ok, nil
}

func (m *MemoryStore) Delete(ctx context.Context, ticker string) (bool, error) {
	ticker = strings.ToUpper(ticker)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[ticker]; !ok {
		return false, nil
	}
	delete(m.docs, ticker)
	delete(m.index, ticker)
	return true, nil
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tickers := make([]string, 0, len(m.index))
	for t := range m.index {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

func (m *MemoryStore) Index(ctx context.Context, ticker string) (*models.IndexRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.index[strings.ToUpper(ticker)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// Ensure MemoryStore implements SectionStore
var _ interfaces.SectionStore = (*MemoryStore)(nil)
