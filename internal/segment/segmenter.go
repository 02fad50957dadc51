// Package segment splits annual-filing text into named disclosure sections
// using anchor-pattern matching.
package segment

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/bobmcallan/tenk/internal/models"
)

const (
	// FallbackSectionName is emitted when no anchors are found anywhere.
	FallbackSectionName = "Full Filing"

	// TruncationMarker is appended when a span exceeds the content cap.
	TruncationMarker = "\n\n[Content truncated...]"

	DefaultMinSectionLength = 500
	DefaultMaxSectionLength = 15000
	DefaultMaxSpanLength    = 20000
)

// category pairs a canonical section name with its anchor patterns.
// Patterns tolerate punctuation variants (dots, dashes, apostrophes) around
// the disclosure item number and title.
type category struct {
	name     string
	patterns []*regexp.Regexp
}

var categories = []category{
	{"Business", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*1\.?\s*[-–—]?\s*BUSINESS`),
	}},
	{"Risk Factors", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*1A\.?\s*[-–—]?\s*RISK\s*FACTORS`),
	}},
	{"Properties", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*2\.?\s*[-–—]?\s*PROPERTIES`),
	}},
	{"Legal Proceedings", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*3\.?\s*[-–—]?\s*LEGAL\s*PROCEEDINGS`),
	}},
	{"MD&A", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*7\.?\s*[-–—]?\s*MANAGEMENT'?S?\s*DISCUSSION`),
	}},
	{"Financial Statements", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*8\.?\s*[-–—]?\s*FINANCIAL\s*STATEMENTS`),
	}},
	{"Directors and Officers", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*10\.?\s*[-–—]?\s*DIRECTORS`),
	}},
	{"Executive Compensation", []*regexp.Regexp{
		regexp.MustCompile(`(?i)ITEM\s*11\.?\s*[-–—]?\s*EXECUTIVE\s*COMPENSATION`),
	}},
}

// CategoryNames returns the canonical section vocabulary in item order.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.name
	}
	return names
}

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	excessSpaces   = regexp.MustCompile(` {2,}`)
)

// Segmenter extracts named sections from filing documents. The zero-value
// bounds are replaced with defaults by NewSegmenter.
type Segmenter struct {
	minSectionLength int
	maxSectionLength int
	maxSpanLength    int
}

// NewSegmenter creates a Segmenter; non-positive bounds use defaults.
func NewSegmenter(minSection, maxSection, maxSpan int) *Segmenter {
	if minSection <= 0 {
		minSection = DefaultMinSectionLength
	}
	if maxSection <= 0 {
		maxSection = DefaultMaxSectionLength
	}
	if maxSpan <= 0 {
		maxSpan = DefaultMaxSpanLength
	}
	return &Segmenter{
		minSectionLength: minSection,
		maxSectionLength: maxSection,
		maxSpanLength:    maxSpan,
	}
}

// anchorMatch is one located anchor, any category.
type anchorMatch struct {
	offset int
	name   string
}

// Segment splits a raw filing document into named sections. It is pure and
// total: malformed input degrades to the single fallback section rather
// than failing.
func (s *Segmenter) Segment(raw []byte, ticker, fiscalYear string) []models.FilingSection {
	text := Normalize(raw)
	ticker = strings.ToUpper(ticker)

	// Locate every anchor occurrence for every category, then merge and
	// sort by document offset. Sorting across categories is what resolves
	// repeated and out-of-order anchors (e.g. table-of-contents entries)
	// into non-overlapping spans.
	var matches []anchorMatch
	for _, cat := range categories {
		for _, pat := range cat.patterns {
			for _, loc := range pat.FindAllStringIndex(text, -1) {
				matches = append(matches, anchorMatch{offset: loc[0], name: cat.name})
			}
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].offset < matches[j].offset })

	var sections []models.FilingSection
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].offset
		} else if m.offset+s.maxSpanLength < end {
			end = m.offset + s.maxSpanLength
		}

		content := strings.TrimSpace(text[m.offset:end])
		if len(content) < s.minSectionLength {
			continue // spurious anchor, e.g. a TOC reference
		}
		if len(content) > s.maxSectionLength {
			content = content[:s.maxSectionLength] + TruncationMarker
		}

		sections = append(sections, models.FilingSection{
			Name:       m.name,
			Content:    content,
			FiscalYear: fiscalYear,
			Ticker:     ticker,
		})
	}

	if len(sections) == 0 {
		content := text
		if len(content) > s.maxSpanLength {
			content = content[:s.maxSpanLength]
		}
		sections = append(sections, models.FilingSection{
			Name:       FallbackSectionName,
			Content:    content,
			FiscalYear: fiscalYear,
			Ticker:     ticker,
		})
	}

	return sections
}

// Normalize extracts plain text from a filing document and collapses
// excessive whitespace. Script, style, and title subtrees are dropped.
// Plain-text input passes through the tokenizer unchanged.
func Normalize(raw []byte) string {
	var sb strings.Builder
	skipDepth := 0

	z := html.NewTokenizer(strings.NewReader(string(raw)))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkippedTag(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkippedTag(string(name)) && skipDepth > 0 {
				skipDepth--
			}
			sb.WriteByte('\n')
		case html.SelfClosingTagToken:
			sb.WriteByte('\n')
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		}
	}

	text := sb.String()
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	text = excessSpaces.ReplaceAllString(text, " ")
	return text
}

func isSkippedTag(name string) bool {
	switch name {
	case "script", "style", "title":
		return true
	}
	return false
}
