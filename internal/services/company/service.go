// Package company resolves free-text queries against the SEC ticker
// registry.
package company

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bobmcallan/tenk/internal/common"
	"github.com/bobmcallan/tenk/internal/interfaces"
	"github.com/bobmcallan/tenk/internal/models"
)

const exactTickerScore = 100.0

// Service searches the company registry. The registry snapshot is fetched
// once on first use and cached for the process lifetime.
type Service struct {
	edgar  interfaces.EdgarClient
	logger *common.Logger

	mu      sync.Mutex
	entries []models.CompanyEntry
}

// NewService creates a company search service.
func NewService(edgar interfaces.EdgarClient, logger *common.Logger) *Service {
	return &Service{edgar: edgar, logger: logger}
}

// Search matches companies by ticker symbol or name keywords. An exact
// ticker match always ranks first.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.CompanyMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil, nil
	}

	entries, err := s.registry(ctx)
	if err != nil {
		return nil, err
	}

	upperQuery := strings.ToUpper(query)
	terms := strings.Fields(strings.ToLower(query))

	var matches []models.CompanyMatch
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.Ticker] {
			continue
		}

		score := 0.0
		if e.Ticker == upperQuery {
			score = exactTickerScore
		} else {
			score = nameScore(terms, e.Name)
			if strings.HasPrefix(e.Ticker, upperQuery) {
				score += 10
			}
		}
		if score <= 0 {
			continue
		}

		seen[e.Ticker] = true
		matches = append(matches, models.CompanyMatch{
			Ticker: e.Ticker,
			Name:   e.Name,
			Score:  score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// nameScore counts query-term overlap with the company name. Prefix matches
// count so partial words still find their company.
func nameScore(terms []string, name string) float64 {
	nameLower := strings.ToLower(name)
	words := strings.Fields(nameLower)

	var score float64
	for _, term := range terms {
		switch {
		case containsWord(words, term):
			score += 20
		case strings.Contains(nameLower, term):
			score += 5
		}
	}
	return score
}

func containsWord(words []string, term string) bool {
	for _, w := range words {
		if w == term || strings.HasPrefix(w, term) {
			return true
		}
	}
	return false
}

func (s *Service) registry(ctx context.Context) ([]models.CompanyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries != nil {
		return s.entries, nil
	}

	entries, err := s.edgar.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	s.entries = entries
	s.logger.Debug().Int("companies", len(entries)).Msg("Company registry cached")
	return entries, nil
}

// Ensure Service implements CompanyService
var _ interfaces.CompanyService = (*Service)(nil)
