// Package search gathers supplementary web evidence about who owns a
// business. Searchers are tried in priority order by a Chain; every failure
// downgrades to an empty result.
package search

import (
	"context"
	"strings"
)

// Searcher turns a free-text query into aggregated result text.
type Searcher interface {
	// Search returns the text of the top results. An empty string with a nil
	// error is treated the same as a failure by the Chain.
	Search(ctx context.Context, query string) (string, error)
	// Name identifies the searcher in logs, breakers and FetchResult.Source.
	Name() string
}

// OwnerQuery builds the ownership query for a business:
//
//	"<name>" <locality> (term1 OR term2 ...)
//
// Empty locality or role terms are omitted.
func OwnerQuery(name, locality string, roleTerms []string) string {
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, `"`, "")), " ")
	parts := []string{`"` + name + `"`}
	if l := strings.TrimSpace(locality); l != "" {
		parts = append(parts, l)
	}

	var terms []string
	for _, t := range roleTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) > 0 {
		parts = append(parts, "("+strings.Join(terms, " OR ")+")")
	}
	return strings.Join(parts, " ")
}
