package scrape

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/pkg/firecrawl"
)

// FirecrawlAdapter wraps a Firecrawl client as a Scraper.
type FirecrawlAdapter struct {
	client firecrawl.Client
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client) *FirecrawlAdapter {
	return &FirecrawlAdapter{client: client}
}

// Name implements Scraper.
func (f *FirecrawlAdapter) Name() string { return "firecrawl" }

// Supports implements Scraper. Firecrawl can attempt any URL.
func (f *FirecrawlAdapter) Supports(_ string) bool { return true }

// Scrape fetches a URL as markdown, main content only.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data.Markdown == "" {
		return nil, eris.Wrap(resilience.ErrNoContent, "firecrawl: empty markdown")
	}

	url := resp.Data.Metadata.SourceURL
	if url == "" {
		url = targetURL
	}
	return &Result{
		Page: model.Page{
			URL:        url,
			Title:      resp.Data.Metadata.Title,
			Markdown:   resp.Data.Markdown,
			StatusCode: resp.Data.Metadata.StatusCode,
		},
		Source: f.Name(),
	}, nil
}
