package filing

import (
	"strings"
	"sync"

	"github.com/bobmcallan/tenk/internal/models"
)

// statusTracker holds transient per-ticker indexing state. Process-local
// and reset on restart; it informs clients but never gates the store.
type statusTracker struct {
	mu       sync.RWMutex
	statuses map[string]models.IndexingStatus
}

func newStatusTracker() *statusTracker {
	return &statusTracker{statuses: make(map[string]models.IndexingStatus)}
}

func (t *statusTracker) set(ticker, status string, progress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[strings.ToUpper(ticker)] = models.IndexingStatus{
		Status:   status,
		Progress: progress,
		Message:  message,
	}
}

func (t *statusTracker) get(ticker string) models.IndexingStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status, ok := t.statuses[strings.ToUpper(ticker)]
	if !ok {
		return models.IndexingStatus{Status: models.IndexStatusNotStarted, Progress: 0}
	}
	return status
}
