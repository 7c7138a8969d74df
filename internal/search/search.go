// Package search matches selector queries against the source catalog.
package search

import (
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Query is a parsed selector search query
type Query struct {
	Pattern string                // text to match, prefix removed
	Kind    models.SuggestionType // restricts results to one kind when set
}

// Kind prefix mappings
var kindPrefixes = []struct {
	prefix string
	kind   models.SuggestionType
}{
	{"database:", models.SuggestionDatabase},
	{"table:", models.SuggestionTable},
	{"db:", models.SuggestionDatabase},
	{"t:", models.SuggestionTable},
}

// ParseQuery parses a query string
// Examples:
//   - "flo"     → {Pattern: "flo"}
//   - "t:flo"   → {Pattern: "flo", Kind: table}
//   - "db:net"  → {Pattern: "net", Kind: database}
func ParseQuery(query string) Query {
	q := Query{}
	query = strings.TrimSpace(query)

	lower := strings.ToLower(query)
	for _, p := range kindPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			q.Kind = p.kind
			query = query[len(p.prefix):]
			break
		}
	}

	q.Pattern = strings.TrimSpace(query)
	return q
}

// Contains reports whether text contains pattern, ignoring case
func Contains(text, pattern string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
}

// Match returns the suggestions for query: matching databases first, then
// matching tables with their owning database. A blank query yields nothing.
func Match(query string, sources []models.DataSource) []models.Suggestion {
	q := ParseQuery(query)
	if q.Pattern == "" {
		return nil
	}

	var suggestions []models.Suggestion

	if q.Kind == "" || q.Kind == models.SuggestionDatabase {
		for _, src := range sources {
			if Contains(src.Name, q.Pattern) {
				suggestions = append(suggestions, models.Suggestion{
					Type:   models.SuggestionDatabase,
					Name:   src.Name,
					Tables: src.Tables,
				})
			}
		}
	}

	if q.Kind == "" || q.Kind == models.SuggestionTable {
		for _, src := range sources {
			for _, table := range src.Tables {
				if Contains(table, q.Pattern) {
					suggestions = append(suggestions, models.Suggestion{
						Type:     models.SuggestionTable,
						Name:     table,
						Database: src.Name,
					})
				}
			}
		}
	}

	return suggestions
}

// FilterSources keeps the sources whose name or any table matches query.
// A blank query keeps everything.
func FilterSources(query string, sources []models.DataSource) []models.DataSource {
	q := ParseQuery(query)
	if q.Pattern == "" {
		return sources
	}

	out := make([]models.DataSource, 0, len(sources))
	for _, src := range sources {
		nameMatches := q.Kind != models.SuggestionTable && Contains(src.Name, q.Pattern)

		tableMatches := false
		if q.Kind != models.SuggestionDatabase {
			for _, table := range src.Tables {
				if Contains(table, q.Pattern) {
					tableMatches = true
					break
				}
			}
		}

		if nameMatches || tableMatches {
			out = append(out, src)
		}
	}
	return out
}

// Segment is a run of text that either matches the query or not
type Segment struct {
	Text    string
	Matched bool
}

// Highlight splits text into matched and unmatched runs. Every
// case-insensitive occurrence of the pattern is marked.
func Highlight(text, query string) []Segment {
	pattern := ParseQuery(query).Pattern
	if pattern == "" || text == "" {
		return []Segment{{Text: text}}
	}

	lowerText := strings.ToLower(text)
	lowerPattern := strings.ToLower(pattern)

	// Lowercasing can change byte lengths for some runes; fall back to no
	// highlighting rather than slicing at the wrong offsets.
	if len(lowerText) != len(text) || len(lowerPattern) != len(pattern) {
		return []Segment{{Text: text}}
	}

	var segments []Segment
	pos := 0
	for {
		idx := strings.Index(lowerText[pos:], lowerPattern)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(pattern)
		if start > pos {
			segments = append(segments, Segment{Text: text[pos:start]})
		}
		segments = append(segments, Segment{Text: text[start:end], Matched: true})
		pos = end
	}
	if pos < len(text) {
		segments = append(segments, Segment{Text: text[pos:]})
	}
	return segments
}
