package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/resilience"
)

// Chain tries searchers in priority order and keeps the first non-empty
// result.
type Chain struct {
	searchers []Searcher
	maxChars  int
	breakers  *resilience.Registry
}

// NewChain creates a Chain whose results are truncated to maxChars.
func NewChain(maxChars int, searchers ...Searcher) *Chain {
	return &Chain{searchers: searchers, maxChars: maxChars}
}

// WithBreakers guards every searcher with its provider breaker.
func (c *Chain) WithBreakers(r *resilience.Registry) *Chain {
	c.breakers = r
	return c
}

// Names returns the searcher names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.searchers))
	for i, s := range c.searchers {
		names[i] = s.Name()
	}
	return names
}

// Search runs the waterfall for query. It never fails; when every searcher
// fails the result is empty with Succeeded=false.
func (c *Chain) Search(ctx context.Context, query string) model.FetchResult {
	for _, s := range c.searchers {
		if ctx.Err() != nil {
			break
		}

		text, err := c.attempt(ctx, s, query)
		if err != nil {
			zap.L().Debug("search: searcher failed, trying next",
				zap.String("searcher", s.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}

		res := model.NewFetchResult(text, s.Name(), c.maxChars)
		zap.L().Debug("search: enrichment found",
			zap.String("searcher", s.Name()),
			zap.Int("chars", len(res.Text)),
		)
		return res
	}
	return model.FetchResult{}
}

func (c *Chain) attempt(ctx context.Context, s Searcher, query string) (string, error) {
	run := func(ctx context.Context) (string, error) {
		text, err := s.Search(ctx, query)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", eris.Wrapf(resilience.ErrNoContent, "search: %s", s.Name())
		}
		return text, nil
	}
	if c.breakers == nil {
		return run(ctx)
	}
	return resilience.Call(ctx, c.breakers.For("search."+s.Name()), run)
}
