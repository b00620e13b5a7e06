package scrape

import (
	"context"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
)

// ContactDelimiter separates homepage text from appended contact-page text.
const ContactDelimiter = "\n\n--- [Contact page] ---\n\n"

// PageSource is anything that resolves a URL to a page, typically a Chain.
type PageSource interface {
	Scrape(ctx context.Context, url string) (*Result, error)
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// MaxChars bounds the text kept from each page.
	MaxChars int
	// ContactPath is appended to the site root when the homepage shows no
	// email. Empty disables the contact-page step.
	ContactPath string
	// ContactPause is waited before the contact-page fetch.
	ContactPause time.Duration
}

// Fetcher implements the website fetch waterfall for one business.
type Fetcher struct {
	source PageSource
	cfg    FetcherConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a Fetcher over source.
func NewFetcher(source PageSource, cfg FetcherConfig) *Fetcher {
	return &Fetcher{source: source, cfg: cfg, sleep: sleepCtx}
}

// Fetch returns the best-effort text of a website. It never fails: when no
// strategy yields content the result is empty with Succeeded=false.
//
// If the homepage text has no '@', the contact page is fetched as well and
// its text appended after ContactDelimiter.
func (f *Fetcher) Fetch(ctx context.Context, website string) model.FetchResult {
	home := f.fetchPage(ctx, website)
	if strings.Contains(home.Text, "@") || f.cfg.ContactPath == "" {
		return home
	}

	contactURL := ContactURL(website, f.cfg.ContactPath)
	if contactURL == "" || strings.TrimRight(contactURL, "/") == strings.TrimRight(website, "/") {
		return home
	}

	if err := f.sleep(ctx, f.cfg.ContactPause); err != nil {
		return home
	}

	zap.L().Debug("scrape: no email on homepage, trying contact page",
		zap.String("url", website),
		zap.String("contact_url", contactURL),
	)
	contact := f.fetchPage(ctx, contactURL)
	if !contact.Succeeded {
		return home
	}
	if !home.Succeeded {
		return contact
	}
	return model.FetchResult{
		Text:      home.Text + ContactDelimiter + contact.Text,
		Succeeded: true,
		Source:    home.Source + "+" + contact.Source,
	}
}

func (f *Fetcher) fetchPage(ctx context.Context, target string) model.FetchResult {
	result, err := f.source.Scrape(ctx, target)
	if err != nil {
		zap.L().Debug("scrape: no content", zap.String("url", target), zap.Error(err))
		return model.FetchResult{}
	}
	return model.NewFetchResult(result.Page.Markdown, result.Source, f.cfg.MaxChars)
}

// ContactURL returns the site root of website joined with path, with exactly
// one '/' between them. Query and fragment are dropped. Inputs that do not
// parse as absolute URLs are joined as strings.
func ContactURL(website, path string) string {
	website = strings.TrimSpace(website)
	path = strings.Trim(strings.TrimSpace(path), "/")
	if website == "" || path == "" {
		return ""
	}

	u, err := url.Parse(website)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(website, "/") + "/" + path
	}
	return u.Scheme + "://" + u.Host + "/" + path
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
