package scrape

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/resilience"
)

// Chain tries scrapers in priority order, returning the first result with
// non-empty content.
type Chain struct {
	scrapers []Scraper
	breakers *resilience.Registry
}

// NewChain creates a Chain. Scrapers are tried in the given order.
func NewChain(scrapers ...Scraper) *Chain {
	return &Chain{scrapers: scrapers}
}

// WithBreakers guards every scraper with its provider breaker. A scraper
// whose breaker is open is skipped.
func (c *Chain) WithBreakers(r *resilience.Registry) *Chain {
	c.breakers = r
	return c
}

// Names returns the scraper names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.scrapers))
	for i, s := range c.scrapers {
		names[i] = s.Name()
	}
	return names
}

// Scrape tries each scraper in order for a single URL.
func (c *Chain) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	var lastErr error
	for _, s := range c.scrapers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scrape: cancelled")
		}
		if !s.Supports(targetURL) {
			continue
		}

		result, err := c.attempt(ctx, s, targetURL)
		if err == nil {
			return result, nil
		}
		zap.L().Debug("scrape: scraper failed, trying next",
			zap.String("scraper", s.Name()),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		lastErr = err
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "scrape: all scrapers failed")
	}
	return nil, eris.Errorf("scrape: no suitable scraper for url: %s", targetURL)
}

func (c *Chain) attempt(ctx context.Context, s Scraper, targetURL string) (*Result, error) {
	run := func(ctx context.Context) (*Result, error) {
		result, err := s.Scrape(ctx, targetURL)
		if err != nil {
			return nil, err
		}
		if result == nil || strings.TrimSpace(result.Page.Markdown) == "" {
			return nil, eris.Wrapf(resilience.ErrNoContent, "scrape: %s", s.Name())
		}
		return result, nil
	}
	if c.breakers == nil {
		return run(ctx)
	}
	return resilience.Call(ctx, c.breakers.For("scrape."+s.Name()), run)
}
