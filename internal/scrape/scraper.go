// Package scrape resolves website text through an ordered waterfall of fetch
// strategies, with a contact-page failsafe when no email shows up.
package scrape

import (
	"context"

	"github.com/sells-group/lead-engine/internal/model"
)

// Result holds a scraped page with its source.
type Result struct {
	Page   model.Page
	Source string // e.g. "firecrawl", "local"
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
