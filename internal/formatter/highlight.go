package formatter

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Highlighter styles every case-insensitive occurrence of a query.
type Highlighter struct {
	query string
	style lipgloss.Style
}

// NewHighlighter returns nil for an empty query, which Apply treats as a
// no-op.
func NewHighlighter(query string, style lipgloss.Style) *Highlighter {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	return &Highlighter{query: query, style: style}
}

// Apply returns s with matches rendered in the highlight style.
func (h *Highlighter) Apply(s string) string {
	if h == nil {
		return s
	}
	spans := matchSpans(s, h.query)
	if len(spans) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, sp := range spans {
		b.WriteString(s[last:sp[0]])
		b.WriteString(h.style.Render(s[sp[0]:sp[1]]))
		last = sp[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// matchSpans returns byte ranges of non-overlapping matches of the
// lower-case query in s. Matching is rune-wise, so offsets stay valid when
// lower-casing changes a rune's byte length.
func matchSpans(s, query string) [][2]int {
	q := []rune(query)
	runes := []rune(s)
	offsets := make([]int, len(runes)+1)
	pos := 0
	for i, r := range runes {
		offsets[i] = pos
		pos += len(string(r))
	}
	offsets[len(runes)] = pos

	var spans [][2]int
	for i := 0; i+len(q) <= len(runes); {
		if equalFold(runes[i:i+len(q)], q) {
			spans = append(spans, [2]int{offsets[i], offsets[i+len(q)]})
			i += len(q)
			continue
		}
		i++
	}
	return spans
}

func equalFold(a, lowerB []rune) bool {
	for i := range a {
		if strings.ToLower(string(a[i])) != string(lowerB[i]) {
			return false
		}
	}
	return true
}
