package scrape

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
)

// PageCache is the storage a CachedScraper reads through.
type PageCache interface {
	// GetCachedPage returns nil, nil on a miss or an expired entry.
	GetCachedPage(ctx context.Context, url string) (*model.PageCache, error)
	SetCachedPage(ctx context.Context, url string, page model.Page, source string, ttl time.Duration) error
}

// CachedScraper serves pages from a PageCache before calling the wrapped
// scraper, and stores fresh results. Cache errors are logged and ignored.
type CachedScraper struct {
	inner Scraper
	cache PageCache
	ttl   time.Duration
}

// NewCachedScraper wraps inner with a read-through page cache.
func NewCachedScraper(inner Scraper, cache PageCache, ttl time.Duration) *CachedScraper {
	return &CachedScraper{inner: inner, cache: cache, ttl: ttl}
}

// Name implements Scraper.
func (c *CachedScraper) Name() string { return c.inner.Name() }

// Supports implements Scraper.
func (c *CachedScraper) Supports(url string) bool { return c.inner.Supports(url) }

// Scrape implements Scraper.
func (c *CachedScraper) Scrape(ctx context.Context, url string) (*Result, error) {
	hit, err := c.cache.GetCachedPage(ctx, url)
	if err != nil {
		zap.L().Warn("scrape: cache lookup failed", zap.String("url", url), zap.Error(err))
	}
	if hit != nil && hit.Page.Markdown != "" {
		zap.L().Debug("scrape: cache hit", zap.String("url", url), zap.String("scraper", hit.Source))
		return &Result{Page: hit.Page, Source: hit.Source}, nil
	}

	result, err := c.inner.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}
	if result != nil && result.Page.Markdown != "" {
		if err := c.cache.SetCachedPage(ctx, url, result.Page, result.Source, c.ttl); err != nil {
			zap.L().Warn("scrape: cache store failed", zap.String("url", url), zap.Error(err))
		}
	}
	return result, nil
}
