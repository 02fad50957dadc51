package company

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/models"
)

type mockEdgarClient struct {
	listCalls int32
	entries   []models.CompanyEntry
	err       error
}

func (m *mockEdgarClient) ResolveCIK(_ context.Context, _ string) (string, error) {
	return "", nil
}
func (m *mockEdgarClient) LatestAnnualFiling(_ context.Context, _ string) (*models.FilingDescriptor, error) {
	return nil, nil
}
func (m *mockEdgarClient) FetchFiling(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}
func (m *mockEdgarClient) CompanyInfo(_ context.Context, _ string) (*models.CompanyInfo, error) {
	return nil, nil
}
func (m *mockEdgarClient) ListCompanies(_ context.Context) ([]models.CompanyEntry, error) {
	atomic.AddInt32(&m.listCalls, 1)
	return m.entries, m.err
}

func registryEntries() []models.CompanyEntry {
	return []models.CompanyEntry{
		{CIK: "0000320193", Ticker: "AAPL", Name: "Apple Inc."},
		{CIK: "0000789019", Ticker: "MSFT", Name: "Microsoft Corporation"},
		{CIK: "0001018724", Ticker: "AMZN", Name: "Amazon.com Inc."},
		{CIK: "0001652044", Ticker: "GOOGL", Name: "Alphabet Inc."},
	}
}

func TestSearchExactTickerRanksFirst(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "MSFT", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "MSFT", matches[0].Ticker)
	assert.Equal(t, 100.0, matches[0].Score)
}

func TestSearchByName(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "microsoft", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "MSFT", matches[0].Ticker)
}

func TestSearchPartialName(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "amaz", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "AMZN", matches[0].Ticker)
}

func TestSearchCaseInsensitiveTicker(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "aapl", 5)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "AAPL", matches[0].Ticker)
}

func TestSearchNoMatch(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "zzzznothing", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchRespectsLimit(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "inc", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(matches), 2)
}

func TestSearchEmptyQuery(t *testing.T) {
	svc := NewService(&mockEdgarClient{entries: registryEntries()}, common.NewSilentLogger())

	matches, err := svc.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Nil(t, matches)
}

func TestRegistryCachedAcrossSearches(t *testing.T) {
	edgar := &mockEdgarClient{entries: registryEntries()}
	svc := NewService(edgar, common.NewSilentLogger())

	_, err := svc.Search(context.Background(), "apple", 5)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "amazon", 5)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&edgar.listCalls))
}

func TestRegistryFetchErrorPropagates(t *testing.T) {
	edgar := &mockEdgarClient{err: errors.New("registry unavailable")}
	svc := NewService(edgar, common.NewSilentLogger())

	_, err := svc.Search(context.Background(), "apple", 5)
	assert.Error(t, err)
}
