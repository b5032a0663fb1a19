package thesaurus

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Order is the ordering of search results.
type Order string

// Search orders. Unsorted ranks results by how well they match the term.
const (
	OrderUnsorted            Order = "unsorted"
	OrderAlphabetical        Order = "alphabetical"
	OrderReverseAlphabetical Order = "reverse-alphabetical"
)

// ParseOrder accepts the order names; anything else is unsorted.
func ParseOrder(s string) Order {
	switch o := Order(s); o {
	case OrderAlphabetical, OrderReverseAlphabetical:
		return o
	default:
		return OrderUnsorted
	}
}

const (
	// DefaultPerPage is the page size used when SearchOptions.PerPage is unset.
	DefaultPerPage = 25
	// DefaultSensitivity is the term sensitivity used when none is given.
	DefaultSensitivity = 3
	// MaxTermLength bounds fuzzy search terms, in characters.
	MaxTermLength = 255
)

// ErrTermTooLong is returned for fuzzy search terms over MaxTermLength.
var ErrTermTooLong = fmt.Errorf("fuzzy search terms cannot exceed %d characters", MaxTermLength)

// SearchOptions controls Search.
type SearchOptions struct {
	Language       string // Active language; its labels rank first
	SystemLanguage string // Fallback language; ranks second
	Order          Order
	Exact          bool // Only labels equal to the term
	// MaxEditDistance is the largest Levenshtein distance that still counts
	// as a fuzzy match. Negative derives it from the term and Sensitivity.
	MaxEditDistance int
	// Sensitivity is a prefix-length style knob: higher means fewer typos
	// tolerated. Zero uses DefaultSensitivity.
	Sensitivity int
	Page        int // 1-based; out of range pages are clamped
	PerPage     int
}

// SearchHit is one concept in a result page.
type SearchHit struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	SchemeID string   `json:"scheme_id" yaml:"scheme_id"`
	Parents  []string `json:"parents" yaml:"parents"`
	Labels   []Label  `json:"labels" yaml:"labels"`
}

// SearchPage is one page of results.
type SearchPage struct {
	CurrentPage    int         `json:"current_page" yaml:"current_page"`
	TotalPages     int         `json:"total_pages" yaml:"total_pages"`
	ResultsPerPage int         `json:"results_per_page" yaml:"results_per_page"`
	TotalResults   int         `json:"total_results" yaml:"total_results"`
	Data           []SearchHit `json:"data" yaml:"data"`
}

// Search finds concepts whose labels match term and returns one page.
//
// Without a term every labelled concept is listed. With Exact, only concepts
// having a label equal to term match. Otherwise a label matches when it
// contains the term (case-insensitively) or is within MaxEditDistance edits
// of it. Unsorted results with a term are ranked by ScoreLabels; the
// alphabetical orders sort by each concept's smallest lower-cased label.
func Search(doc Document, term string, opts SearchOptions) (SearchPage, error) {
	fuzzy := term != "" && !opts.Exact
	if fuzzy && utf8.RuneCountInString(term) > MaxTermLength {
		return SearchPage{}, ErrTermTooLong
	}
	maxEdits := opts.MaxEditDistance
	if maxEdits < 0 {
		maxEdits = ResolveMaxEditDistance(term, opts.Sensitivity)
	}

	var hits []candidate
	for _, c := range collectConcepts(doc) {
		if len(c.concept.Labels) == 0 {
			continue
		}
		switch {
		case term == "":
		case opts.Exact:
			if !hasLabel(c.concept.Labels, func(l Label) bool { return l.Value == term }) {
				continue
			}
		default:
			lower := strings.ToLower(term)
			if !hasLabel(c.concept.Labels, func(l Label) bool {
				return strings.Contains(strings.ToLower(l.Value), lower) ||
					levenshtein.Distance(l.Value, term, nil) <= maxEdits
			}) {
				continue
			}
		}
		hits = append(hits, c)
	}

	order := ParseOrder(string(opts.Order))
	switch {
	case term != "" && order == OrderUnsorted:
		for i := range hits {
			hits[i].score = ScoreLabels(hits[i].concept.Labels, term, opts.Language, opts.SystemLanguage)
		}
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score.Less(hits[j].score) })
	case order == OrderUnsorted:
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].concept.ID < hits[j].concept.ID })
	default:
		reverse := order == OrderReverseAlphabetical
		sort.SliceStable(hits, func(i, j int) bool {
			a, b := sortLabel(hits[i].concept.Labels), sortLabel(hits[j].concept.Labels)
			if a == b {
				// Fuzzy results keep match order on ties, the rest go by id.
				return !fuzzy && hits[i].concept.ID < hits[j].concept.ID
			}
			if reverse {
				return a > b
			}
			return a < b
		})
	}

	return paginate(hits, opts), nil
}

// ResolveMaxEditDistance derives the tolerated edit distance from the term
// length and the sensitivity: short terms must match exactly.
func ResolveMaxEditDistance(term string, sensitivity int) int {
	if sensitivity == 0 {
		sensitivity = DefaultSensitivity
	}
	base := 5 - sensitivity
	switch {
	case sensitivity <= 0:
		base = 5
	case sensitivity >= 5:
		base = 0
	}
	if term == "" {
		return base
	}
	switch n := utf8.RuneCountInString(term); {
	case n <= 3:
		return 0
	case n <= 5:
		return min(base, 1)
	default:
		return min(base, 2)
	}
}

// Score ranks how well a label matches a term. Lower is better.
type Score struct {
	Match    int    // Text match crossed with the label type, see matchRanks
	Language int    // 0 active, 1 system, 2 other
	Rank     int    // Negated label rank
	Value    string // Lower-cased label value
}

// WorstScore is the score of a concept without labels.
var WorstScore = Score{Match: 7, Language: 2, Rank: 0, Value: "\uffff"}

// Less orders scores field by field.
func (s Score) Less(o Score) bool {
	if s.Match != o.Match {
		return s.Match < o.Match
	}
	if s.Language != o.Language {
		return s.Language < o.Language
	}
	if s.Rank != o.Rank {
		return s.Rank < o.Rank
	}
	return s.Value < o.Value
}

// matchRanks maps a label type to its rank for an exact, prefix, substring
// and missing text match.
var matchRanks = map[string][4]int{
	PrefLabel: {0, 2, 3, 6},
	AltLabel:  {1, 4, 5, 6},
	"":        {4, 5, 6, 7},
}

// ScoreLabels returns the best score of any label for term.
func ScoreLabels(labels []Label, term, lang, systemLang string) Score {
	term = strings.ToLower(term)
	best := WorstScore
	for _, l := range labels {
		if s := scoreLabel(l, term, lang, systemLang); s.Less(best) {
			best = s
		}
	}
	return best
}

func scoreLabel(l Label, term, lang, systemLang string) Score {
	value := strings.ToLower(l.Value)

	text := 3
	switch {
	case term == "":
	case value == term:
		text = 0
	case strings.HasPrefix(value, term):
		text = 1
	case strings.Contains(value, term):
		text = 2
	}

	language := 2
	switch {
	case sameLanguage(l.LanguageID, lang):
		language = 0
	case sameLanguage(l.LanguageID, systemLang):
		language = 1
	}

	rank := 0
	if l.Rank != nil {
		rank = -*l.Rank
	}

	ranks, ok := matchRanks[l.ValueType]
	if !ok {
		ranks = matchRanks[""]
	}
	return Score{Match: ranks[text], Language: language, Rank: rank, Value: value}
}

type candidate struct {
	concept  Concept
	schemeID string
	parents  []string
	score    Score
}

// collectConcepts lists every concept once, in document order, with the
// ids of its ancestors.
func collectConcepts(doc Document) []candidate {
	var out []candidate
	seen := map[string]bool{}
	var walk func(c Concept, scheme string, parents []string)
	walk = func(c Concept, scheme string, parents []string) {
		if !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, candidate{concept: c, schemeID: scheme, parents: parents})
		}
		next := append(append([]string(nil), parents...), c.ID)
		for _, child := range c.Narrower {
			walk(child, scheme, next)
		}
	}
	for _, s := range doc.Schemes {
		for _, c := range s.TopConcepts {
			walk(c, s.ID, []string{s.ID})
		}
	}
	return out
}

func hasLabel(labels []Label, match func(Label) bool) bool {
	for _, l := range labels {
		if match(l) {
			return true
		}
	}
	return false
}

func sortLabel(labels []Label) string {
	best := ""
	for i, l := range labels {
		v := strings.ToLower(l.Value)
		if i == 0 || v < best {
			best = v
		}
	}
	return best
}

func paginate(hits []candidate, opts SearchOptions) SearchPage {
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(hits)
	pages := max(1, (total+perPage-1)/perPage)
	page := min(max(opts.Page, 1), pages)

	res := SearchPage{
		CurrentPage:    page,
		TotalPages:     pages,
		ResultsPerPage: perPage,
		TotalResults:   total,
		Data:           []SearchHit{},
	}
	start := (page - 1) * perPage
	end := min(start+perPage, total)
	for _, h := range hits[start:end] {
		res.Data = append(res.Data, SearchHit{
			ID:       h.concept.ID,
			Label:    displayLabel(h.concept.Labels, h.concept.ID, TreeOptions{Language: opts.Language, SystemLanguage: opts.SystemLanguage}),
			SchemeID: h.schemeID,
			Parents:  h.parents,
			Labels:   h.concept.Labels,
		})
	}
	return res
}
