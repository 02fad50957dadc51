package filing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/models"
	"github.com/bobmcallan/tenk/internal/segment"
	"github.com/bobmcallan/tenk/internal/storage"
)

// --- Mocks ---

type mockEdgarClient struct {
	fetchCalls int32
	fetchGate  chan struct{} // when set, FetchFiling blocks until closed

	resolveErr error
	locateErr  error
	fetchErr   error
	body       string
}

func (m *mockEdgarClient) ResolveCIK(_ context.Context, ticker string) (string, error) {
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return "0000320193", nil
}

func (m *mockEdgarClient) LatestAnnualFiling(_ context.Context, cik string) (*models.FilingDescriptor, error) {
	if m.locateErr != nil {
		return nil, m.locateErr
	}
	return &models.FilingDescriptor{
		CIK:             cik,
		AccessionNumber: "0000320193-25-000001",
		FilingDate:      "2025-01-15",
		PrimaryDocument: "doc.htm",
		FilingURL:       "https://example.test/doc.htm",
	}, nil
}

func (m *mockEdgarClient) FetchFiling(ctx context.Context, _ string) ([]byte, error) {
	atomic.AddInt32(&m.fetchCalls, 1)
	if m.fetchGate != nil {
		<-m.fetchGate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return []byte(m.body), nil
}

func (m *mockEdgarClient) CompanyInfo(_ context.Context, ticker string) (*models.CompanyInfo, error) {
	return &models.CompanyInfo{CIK: "0000320193", Name: "Apple Inc.", Ticker: ticker}, nil
}

func (m *mockEdgarClient) ListCompanies(_ context.Context) ([]models.CompanyEntry, error) {
	return nil, nil
}

func testFilingBody() string {
	pad := strings.Repeat("widget disclosure text ", 100)
	return fmt.Sprintf("ITEM 1. BUSINESS\n%s\nITEM 1A. RISK FACTORS\n%s", pad, pad)
}

func newTestService(edgar *mockEdgarClient) *Service {
	seg := segment.NewSegmenter(500, 15000, 20000)
	return NewService(edgar, storage.NewMemoryStore(), seg, common.NewSilentLogger())
}

// --- Tests ---

func TestIndexPipeline(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	result, err := svc.Index(ctx, "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.Equal(t, "indexed", result.Status)
	assert.Equal(t, 2, result.SectionsIndexed)
	assert.Equal(t, "2025-01-15", result.FilingDate)

	status := svc.Status(ctx, "AAPL")
	assert.Equal(t, models.IndexStatusComplete, status.Status)
	assert.Equal(t, 100, status.Progress)
}

func TestIndexAlreadyIndexedShortCircuits(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "AAPL")
	require.NoError(t, err)

	result, err := svc.Index(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "already_indexed", result.Status)
	assert.Equal(t, 2, result.SectionsIndexed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&edgar.fetchCalls))
}

func TestIndexErrorSetsStatus(t *testing.T) {
	edgar := &mockEdgarClient{resolveErr: fmt.Errorf("%w: ZZZZ", models.ErrTickerNotFound)}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "ZZZZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrTickerNotFound))

	status := svc.Status(ctx, "ZZZZ")
	assert.Equal(t, models.IndexStatusError, status.Status)
	assert.NotEmpty(t, status.Message)
}

func TestIndexConcurrentCallsCoalesce(t *testing.T) {
	edgar := &mockEdgarClient{
		body:      testFilingBody(),
		fetchGate: make(chan struct{}),
	}
	svc := newTestService(edgar)
	ctx := context.Background()

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.IndexResult, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Index(ctx, "AAPL")
		}(i)
	}

	// Let all goroutines pile onto the in-flight fetch, then release it
	for atomic.LoadInt32(&edgar.fetchCalls) == 0 {
		time.Sleep(time.Millisecond)
	}
	close(edgar.fetchGate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "AAPL", results[i].Ticker)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&edgar.fetchCalls))
}

func TestIndexSurvivesInitiatorCancellation(t *testing.T) {
	edgar := &mockEdgarClient{
		body:      testFilingBody(),
		fetchGate: make(chan struct{}),
	}
	svc := newTestService(edgar)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var result *models.IndexResult
	var err error
	go func() {
		defer close(done)
		result, err = svc.Index(ctx, "AAPL")
	}()

	// Cancel the initiating request while the fetch is in flight; the
	// shared run keeps going and completes.
	for atomic.LoadInt32(&edgar.fetchCalls) == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	close(edgar.fetchGate)
	<-done

	require.NoError(t, err)
	assert.Equal(t, "indexed", result.Status)
	assert.Equal(t, 2, result.SectionsIndexed)
}

func TestStatusUnknownTicker(t *testing.T) {
	svc := newTestService(&mockEdgarClient{})
	status := svc.Status(context.Background(), "NOPE")
	assert.Equal(t, models.IndexStatusNotStarted, status.Status)
	assert.Zero(t, status.Progress)
}

func TestSearchRequiresIndexedFiling(t *testing.T) {
	svc := newTestService(&mockEdgarClient{})
	_, err := svc.Search(context.Background(), "risk", "AAPL", 3)
	assert.True(t, errors.Is(err, models.ErrFilingNotFound))
}

func TestSearchReturnsRankedSections(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "AAPL")
	require.NoError(t, err)

	results, err := svc.Search(ctx, "what are the risks", "aapl", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Risk Factors", results[0].Name)
}

func TestSectionsPreviews(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "AAPL")
	require.NoError(t, err)

	previews, err := svc.Sections(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, previews, 2)
	for _, p := range previews {
		assert.LessOrEqual(t, len(p.ContentPreview), 500+len("..."))
		assert.Equal(t, "2025", p.FiscalYear)
	}
	assert.True(t, strings.HasSuffix(previews[0].ContentPreview, "..."))
}

func TestDeleteResetsStatus(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "AAPL")
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, deleted)

	status := svc.Status(ctx, "AAPL")
	assert.Equal(t, models.IndexStatusNotStarted, status.Status)

	deleted, err = svc.Delete(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListTickers(t *testing.T) {
	edgar := &mockEdgarClient{body: testFilingBody()}
	svc := newTestService(edgar)
	ctx := context.Background()

	_, err := svc.Index(ctx, "MSFT")
	require.NoError(t, err)
	_, err = svc.Index(ctx, "AAPL")
	require.NoError(t, err)

	tickers, err := svc.ListTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestIndexEmptyTicker(t *testing.T) {
	svc := newTestService(&mockEdgarClient{})
	_, err := svc.Index(context.Background(), "   ")
	assert.Error(t, err)
}
