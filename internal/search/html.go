package search

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/internal/scrape"
)

// DefaultUserAgent is sent to public search engines.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

const (
	maxResultBody = 2 << 20
	maxHits       = 8
)

// HTMLOption configures a public search engine searcher.
type HTMLOption func(*htmlEngine)

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) HTMLOption {
	return func(e *htmlEngine) {
		if ua != "" {
			e.userAgent = ua
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) HTMLOption {
	return func(e *htmlEngine) {
		if d > 0 {
			e.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) HTMLOption {
	return func(e *htmlEngine) { e.client = hc }
}

// WithEndpoint overrides the engine's results URL.
func WithEndpoint(u string) HTMLOption {
	return func(e *htmlEngine) {
		if u != "" {
			e.endpoint = u
		}
	}
}

// WithRegion sets the engine's region code (DuckDuckGo "kl", e.g. "nl-nl").
func WithRegion(region string) HTMLOption {
	return func(e *htmlEngine) { e.region = region }
}

// htmlEngine holds what the scraped search engines share.
type htmlEngine struct {
	name      string
	endpoint  string
	region    string
	userAgent string
	client    *http.Client
	// results and title and snippet are goquery selectors for a result block.
	results string
	title   string
	snippet string
}

func newHTMLEngine(name, endpoint string, opts []HTMLOption) *htmlEngine {
	e := &htmlEngine{
		name:      name,
		endpoint:  endpoint,
		userAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *htmlEngine) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "nl-NL,nl;q=0.9,en;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: request", e.name)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResultBody))
	if err != nil {
		return nil, eris.Wrapf(err, "%s: read body", e.name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Wrapf(resilience.NewProviderError(e.name, resp.StatusCode, body), "%s: search", e.name)
	}
	return body, nil
}

// extract pulls result titles and snippets from a results page. When the
// selectors match nothing the whole page is stripped to text instead.
func (e *htmlEngine) extract(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrapf(err, "%s: parse results", e.name)
	}

	var b strings.Builder
	hits := 0
	doc.Find(e.results).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(e.title).First()
		title := collapse(link.Text())
		snippet := collapse(s.Find(e.snippet).First().Text())
		if title == "" && snippet == "" {
			return true
		}
		href, _ := link.Attr("href")
		if href == "" {
			href, _ = s.Find("a[href]").First().Attr("href")
		}
		writeHit(&b, title, unwrapRedirect(href), snippet)
		hits++
		return hits < maxHits
	})

	text := strings.TrimSpace(b.String())
	if text == "" {
		doc.Find("header, form").Remove()
		html, _ := doc.Html()
		text = scrape.StripHTML(html)
	}
	if text == "" {
		return "", eris.Wrapf(resilience.ErrNoContent, "%s: no results", e.name)
	}
	return text, nil
}

// unwrapRedirect returns the target of a search-engine redirect link
// (.../l/?uddg=<target>), or href unchanged.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// BraveSearcher scrapes the Brave Search results page.
type BraveSearcher struct {
	*htmlEngine
}

// NewBraveSearcher creates a BraveSearcher.
func NewBraveSearcher(opts ...HTMLOption) *BraveSearcher {
	e := newHTMLEngine("brave", "https://search.brave.com/search", opts)
	e.results = "#results .snippet, div.snippet[data-type='web']"
	e.title = ".snippet-title, .title, a.heading-serpresult"
	e.snippet = ".snippet-description, .snippet-content, .generic-snippet .content"
	return &BraveSearcher{htmlEngine: e}
}

// Name implements Searcher.
func (s *BraveSearcher) Name() string { return s.name }

// Search implements Searcher with GET <endpoint>?q=<query>.
func (s *BraveSearcher) Search(ctx context.Context, query string) (string, error) {
	u := s.endpoint + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", eris.Wrap(err, "brave: create request")
	}
	body, err := s.do(req)
	if err != nil {
		return "", err
	}
	return s.extract(body)
}

// DuckDuckGoSearcher scrapes the DuckDuckGo HTML endpoint.
type DuckDuckGoSearcher struct {
	*htmlEngine
}

// NewDuckDuckGoSearcher creates a DuckDuckGoSearcher. Its default region is
// nl-nl.
func NewDuckDuckGoSearcher(opts ...HTMLOption) *DuckDuckGoSearcher {
	e := newHTMLEngine("duckduckgo", "https://html.duckduckgo.com/html/", append([]HTMLOption{WithRegion("nl-nl")}, opts...))
	e.results = ".result, .web-result"
	e.title = "a.result__a, .result__title a"
	e.snippet = ".result__snippet, .result__body"
	return &DuckDuckGoSearcher{htmlEngine: e}
}

// Name implements Searcher.
func (s *DuckDuckGoSearcher) Name() string { return s.name }

// Search implements Searcher with a form POST of q and kl.
func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string) (string, error) {
	form := url.Values{"q": {query}}
	if s.region != "" {
		form.Set("kl", s.region)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "duckduckgo: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://html.duckduckgo.com/")

	body, err := s.do(req)
	if err != nil {
		return "", err
	}
	return s.extract(body)
}
