// Package search ranks stored filing sections against keyword queries.
package search

import (
	"sort"
	"strings"

	"github.com/bobmcallan/tenk/internal/models"
)

const (
	priorityTermWeight = 10.0
	nameTermWeight     = 5.0
	prefixTermWeight   = 1.0
	coreSectionBonus   = 2.0

	// prefixWindow bounds the content scan so scoring cost stays flat
	// regardless of section length.
	prefixWindow = 1000
)

// priorityTerms maps each section name to the vocabulary that strongly
// signals a query is about that section.
var priorityTerms = map[string][]string{
	"Business":               {"business", "model", "overview", "company", "products", "services", "revenue", "competitors"},
	"Risk Factors":           {"risk", "risks", "factors", "challenges", "threats"},
	"Properties":             {"properties", "facilities", "locations", "real", "estate"},
	"Legal Proceedings":      {"legal", "proceedings", "litigation", "lawsuits", "regulatory"},
	"MD&A":                   {"management", "discussion", "analysis", "financial", "performance", "results", "growth"},
	"Financial Statements":   {"financial", "statements", "income", "balance", "cash", "flow"},
	"Directors and Officers": {"directors", "officers", "management", "executives", "board"},
	"Executive Compensation": {"compensation", "salary", "bonus", "equity", "pay"},
}

// coreSections always carry a small bonus: they answer the widest range of
// analyst questions, so ties break in their favor.
var coreSections = map[string]bool{
	"Business":     true,
	"Risk Factors": true,
	"MD&A":         true,
}

// scored pairs a candidate with its relevance and original position.
type scored struct {
	result models.SearchResult
	score  float64
	pos    int
}

// Rank orders sections by lexical relevance to the query and returns at most
// limit results. An empty or whitespace query returns the sections in their
// stored order. Zero-score sections fill out the list in stored order, so a
// non-empty collection always yields at least one result.
func Rank(query string, sections []models.FilingSection, limit int) []models.SearchResult {
	if limit <= 0 || len(sections) == 0 {
		return nil
	}

	terms := queryTerms(query)
	if len(terms) == 0 {
		n := limit
		if n > len(sections) {
			n = len(sections)
		}
		results := make([]models.SearchResult, 0, n)
		for _, sec := range sections[:n] {
			results = append(results, toResult(sec, 0))
		}
		return results
	}

	candidates := make([]scored, 0, len(sections))
	for i, sec := range sections {
		score := scoreSection(terms, sec)
		candidates = append(candidates, scored{
			result: toResult(sec, score),
			score:  score,
			pos:    i,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	// Always return the top of the scored list: zero-score sections fill
	// out the answer in stored order, so a non-empty collection never
	// produces an empty result.
	n := limit
	if n > len(candidates) {
		n = len(candidates)
	}
	results := make([]models.SearchResult, 0, n)
	for _, c := range candidates[:n] {
		results = append(results, c.result)
	}
	return results
}

// scoreSection computes the relevance of one section for the query terms.
func scoreSection(terms []string, sec models.FilingSection) float64 {
	nameLower := strings.ToLower(sec.Name)
	prefix := sec.Content
	if len(prefix) > prefixWindow {
		prefix = prefix[:prefixWindow]
	}
	prefixLower := strings.ToLower(prefix)

	priority := priorityTerms[sec.Name]

	// The tiers accumulate independently: one term can earn the priority,
	// name, and prefix weights at once.
	var score float64
	for _, term := range terms {
		for _, p := range priority {
			if term == p {
				score += priorityTermWeight
				break
			}
		}
		if strings.Contains(nameLower, term) {
			score += nameTermWeight
		}
		if strings.Contains(prefixLower, term) {
			score += prefixTermWeight
		}
	}

	if score > 0 && coreSections[sec.Name] {
		score += coreSectionBonus
	}
	return score
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()")
		if f != "" {
			terms = append(terms, f)
		}
	}
	return terms
}

func toResult(sec models.FilingSection, score float64) models.SearchResult {
	return models.SearchResult{
		Content:    sec.Content,
		Name:       sec.Name,
		Ticker:     sec.Ticker,
		FiscalYear: sec.FiscalYear,
		Relevance:  score,
	}
}
