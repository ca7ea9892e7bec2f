package app

import (
	"regexp"
	"strings"
)

const maxTracedQueryLength = 512

var queryWhitespace = regexp.MustCompile(`\s+`)

// formatDBQueryForTrace collapses whitespace and truncates long statements
// before they become span attributes.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSuffix(strings.TrimSpace(query), ";")
	if query == "" {
		return query
	}

	normalized := queryWhitespace.ReplaceAllString(query, " ")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}
	return normalized[:maxTracedQueryLength] + "..."
}
