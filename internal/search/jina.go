package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/pkg/jina"
)

// JinaSearcher uses the Jina search API.
type JinaSearcher struct {
	client  jina.Client
	country string
	results int
}

// NewJinaSearcher creates a JinaSearcher biased toward country (for example
// "nl"); an empty country searches globally.
func NewJinaSearcher(client jina.Client, country string) *JinaSearcher {
	return &JinaSearcher{client: client, country: country, results: 5}
}

// Name implements Searcher.
func (j *JinaSearcher) Name() string { return "jina" }

// Search implements Searcher. Each hit contributes its title, URL,
// description and content.
func (j *JinaSearcher) Search(ctx context.Context, query string) (string, error) {
	opts := []jina.SearchOption{jina.WithNumResults(j.results)}
	if j.country != "" {
		opts = append(opts, jina.WithCountry(j.country))
	}

	resp, err := j.client.Search(ctx, query, opts...)
	if err != nil {
		return "", eris.Wrap(err, "jina: search")
	}
	if resp == nil || len(resp.Data) == 0 {
		return "", eris.Wrap(resilience.ErrNoContent, "jina: no results")
	}

	var b strings.Builder
	for _, r := range resp.Data {
		writeHit(&b, r.Title, r.URL, r.Description, r.Content)
	}
	return strings.TrimSpace(b.String()), nil
}

// writeHit appends one search hit as a blank-line separated block.
func writeHit(b *strings.Builder, title, url string, texts ...string) {
	if title = strings.TrimSpace(title); title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	if url = strings.TrimSpace(url); url != "" {
		b.WriteString(url)
		b.WriteByte('\n')
	}
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			b.WriteString(t)
			b.WriteByte('\n')
		}
	}
	b.WriteByte('\n')
}
