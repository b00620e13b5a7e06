package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/resilience"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	maxBodyBytes     = 2 << 20
)

// LocalScraper is the degraded native fetch: plain GET, HTML stripped to text.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// LocalOption configures a LocalScraper.
type LocalOption func(*LocalScraper)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) LocalOption {
	return func(l *LocalScraper) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) LocalOption {
	return func(l *LocalScraper) {
		if d > 0 {
			l.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) LocalOption {
	return func(l *LocalScraper) { l.client = hc }
}

// NewLocalScraper creates a LocalScraper.
func NewLocalScraper(opts ...LocalOption) *LocalScraper {
	l := &LocalScraper{
		userAgent: defaultUserAgent,
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL and strips it to plain text.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "local: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("local: blocked (%s)", kind)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Wrap(resilience.NewProviderError("local", resp.StatusCode, nil), "local: fetch")
	}

	doc := string(body)
	text := StripHTML(doc)
	if text == "" {
		return nil, eris.Wrap(resilience.ErrNoContent, "local: empty page")
	}

	return &Result{
		Page: model.Page{
			URL:        resp.Request.URL.String(),
			Title:      PageTitle(doc),
			Markdown:   text,
			StatusCode: resp.StatusCode,
		},
		Source: l.Name(),
	}, nil
}
