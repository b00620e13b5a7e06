package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/extract"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/scrape"
	"github.com/sells-group/lead-engine/internal/search"
)

type fakeFetcher struct {
	text  string
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (f *fakeFetcher) Fetch(ctx context.Context, website string) model.FetchResult {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return model.FetchResult{}
		case <-time.After(f.delay):
		}
	}
	return model.NewFetchResult(f.text, "fake", 0)
}

type fakeSearcher struct {
	text    string
	queries []string
	mu      sync.Mutex
}

func (f *fakeSearcher) Search(_ context.Context, query string) model.FetchResult {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return model.NewFetchResult(f.text, "fake", 0)
}

type fakeExtractor struct {
	res   model.ExtractionResult
	err   error
	calls int
	last  extract.Request
}

func (f *fakeExtractor) Extract(_ context.Context, req extract.Request) (model.ExtractionResult, error) {
	f.calls++
	f.last = req
	return f.res, f.err
}

func noSleep(p *Pipeline) *Pipeline {
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func TestProcess_InputErrors(t *testing.T) {
	p := New(&fakeFetcher{}, &fakeSearcher{}, &fakeExtractor{}, Options{})

	_, err := p.Process(context.Background(), Input{PlaceName: "Acme"})
	var inErr *InputError
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "website", inErr.Field)

	_, err = p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "  "})
	require.True(t, errors.As(err, &inErr))
	assert.Equal(t, "placeName", inErr.Field)
}

func TestProcess_EmailAndOwner(t *testing.T) {
	fetcher := &fakeFetcher{text: "Welkom. info@bakkerijwolf.nl"}
	searcher := &fakeSearcher{text: "Paula Fles, eigenaar"}
	extractor := &fakeExtractor{res: model.ExtractionResult{Email: ptr("info@bakkerijwolf.nl"), OwnerName: ptr("Paula Fles")}}
	p := noSleep(New(fetcher, searcher, extractor, Options{Locality: "Amsterdam", RoleTerms: []string{"eigenaar"}}))

	out, err := p.Process(context.Background(), Input{Website: "https://www.bakkerijwolf.nl/", PlaceName: "Bakkerij Wolf"})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusVerified, out.Status)
	assert.Equal(t, "info@bakkerijwolf.nl", *out.InitialEmail)
	assert.Equal(t, "Paula Fles", *out.OwnerName)
	assert.Equal(t, "paula@bakkerijwolf.nl", *out.VerifiedEmail)
	assert.Empty(t, out.Error)

	assert.Equal(t, []string{`"Bakkerij Wolf" Amsterdam (eigenaar)`}, searcher.queries)
	assert.Contains(t, extractor.last.Prompt, "Welkom. info@bakkerijwolf.nl")
	assert.Contains(t, extractor.last.Prompt, "Paula Fles, eigenaar")
	assert.NotContains(t, extractor.last.GroundedPrompt, "Paula Fles, eigenaar")
}

func TestProcess_InputLocalityOverrides(t *testing.T) {
	searcher := &fakeSearcher{text: "x"}
	p := noSleep(New(&fakeFetcher{text: "y"}, searcher, &fakeExtractor{}, Options{Locality: "Amsterdam"}))

	_, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme", Locality: "Utrecht"})
	require.NoError(t, err)
	assert.Equal(t, []string{`"Acme" Utrecht`}, searcher.queries)
}

func TestProcess_ExtractionFailure(t *testing.T) {
	extractor := &fakeExtractor{err: &extract.ExtractionError{Tier: "anthropic", Kind: extract.KindMalformed, Err: errors.New("bad json")}}
	p := noSleep(New(&fakeFetcher{text: "site"}, &fakeSearcher{}, extractor, Options{}))

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusFailed, out.Status)
	assert.Nil(t, out.InitialEmail)
	assert.Nil(t, out.OwnerName)
	assert.Contains(t, out.Error, "malformed")

	var xerr *extract.ExtractionError
	assert.True(t, errors.As(out.Err, &xerr))
}

func TestProcess_SearchOnlyStillExtracts(t *testing.T) {
	extractor := &fakeExtractor{res: model.ExtractionResult{OwnerName: ptr("Jan")}}
	p := noSleep(New(&fakeFetcher{}, &fakeSearcher{text: "Jan"}, extractor, Options{}))

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, 1, extractor.calls)
	assert.Equal(t, model.LeadStatusVerified, out.Status)
}

func TestProcess_NilSearcher(t *testing.T) {
	extractor := &fakeExtractor{res: model.ExtractionResult{Email: ptr("info@acme.nl")}}
	p := New(&fakeFetcher{text: "info@acme.nl"}, nil, extractor, Options{SearchPause: time.Hour})

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusGeneral, out.Status)
}

func TestProcess_SearchPause(t *testing.T) {
	var slept []time.Duration
	p := New(&fakeFetcher{text: "x"}, &fakeSearcher{text: "y"}, &fakeExtractor{}, Options{SearchPause: 2 * time.Second})
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{2 * time.Second}, slept)
}

func TestProcess_Parallel(t *testing.T) {
	fetcher := &fakeFetcher{text: "info@acme.nl", delay: 20 * time.Millisecond}
	searcher := &fakeSearcher{text: "Jan de Vries"}
	extractor := &fakeExtractor{res: model.ExtractionResult{Email: ptr("info@acme.nl"), OwnerName: ptr("Jan de Vries")}}
	p := noSleep(New(fetcher, searcher, extractor, Options{Parallel: true}))

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusVerified, out.Status)
	assert.Equal(t, 1, fetcher.calls)
	assert.Len(t, searcher.queries, 1)
	assert.Contains(t, extractor.last.Prompt, "Jan de Vries")
}

func TestProcess_CandidateTimeout(t *testing.T) {
	fetcher := &fakeFetcher{text: "late", delay: time.Second}
	extractor := &fakeExtractor{}
	p := noSleep(New(fetcher, &fakeSearcher{}, extractor, Options{CandidateTimeout: 10 * time.Millisecond}))

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, context.DeadlineExceeded)
	assert.Equal(t, 0, extractor.calls)
}

// The scenarios below run the real fetch, search and extraction
// components with stubbed providers.

type pageScraper struct {
	pages map[string]string
}

func (s *pageScraper) Name() string           { return "stub" }
func (s *pageScraper) Supports(_ string) bool { return true }
func (s *pageScraper) Scrape(_ context.Context, url string) (*scrape.Result, error) {
	text, ok := s.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return &scrape.Result{Page: model.Page{URL: url, Markdown: text}, Source: "stub"}, nil
}

type textSearcher struct {
	text string
}

func (s *textSearcher) Name() string { return "stub" }
func (s *textSearcher) Search(_ context.Context, _ string) (string, error) {
	if s.text == "" {
		return "", errors.New("no results")
	}
	return s.text, nil
}

type scriptedTier struct {
	answer string
	calls  int
	prompt string
}

func (s *scriptedTier) Name() string { return "scripted" }
func (s *scriptedTier) Generate(_ context.Context, req extract.Request) (string, error) {
	s.calls++
	s.prompt = req.Prompt
	return s.answer, nil
}

func newScenarioPipeline(pages map[string]string, searchText string, tier *scriptedTier) *Pipeline {
	fetcher := scrape.NewFetcher(scrape.NewChain(&pageScraper{pages: pages}), scrape.FetcherConfig{
		MaxChars:    15000,
		ContactPath: "contact",
	})
	searcher := search.NewChain(15000, &textSearcher{text: searchText})
	return noSleep(New(fetcher, searcher, extract.NewClient(tier), Options{Locality: "Amsterdam"}))
}

func TestScenario_GeneralEmailOnly(t *testing.T) {
	tier := &scriptedTier{answer: "```json\n{\"email\": \"info@acme.nl\", \"ownerName\": \"null\"}\n```"}
	p := newScenarioPipeline(
		map[string]string{"https://acme.nl": "Acme BV. Mail ons via info@acme.nl"},
		"Acme BV is gevestigd in Amsterdam.",
		tier,
	)

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusGeneral, out.Status)
	require.NotNil(t, out.InitialEmail)
	assert.Equal(t, "info@acme.nl", *out.InitialEmail)
	assert.Nil(t, out.OwnerName)
	assert.Nil(t, out.VerifiedEmail)
	assert.Contains(t, tier.prompt, "info@acme.nl")
}

func TestScenario_OwnerFromSearchOnly(t *testing.T) {
	tier := &scriptedTier{answer: `{"email": null, "ownerName": "Jan de Vries"}`}
	p := newScenarioPipeline(
		map[string]string{},
		"Jan de Vries richtte Acme op in 2004 (oprichter).",
		tier,
	)

	out, err := p.Process(context.Background(), Input{Website: "https://www.acme.nl/", PlaceName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusVerified, out.Status)
	assert.Nil(t, out.InitialEmail)
	require.NotNil(t, out.OwnerName)
	assert.Equal(t, "Jan de Vries", *out.OwnerName)
	require.NotNil(t, out.VerifiedEmail)
	assert.Equal(t, "jan@acme.nl", *out.VerifiedEmail)
	assert.Contains(t, tier.prompt, "Jan de Vries richtte Acme op")
	assert.True(t, strings.Contains(tier.prompt, "(none available)"), "website section is empty")
}

func TestScenario_NothingFoundSkipsModel(t *testing.T) {
	tier := &scriptedTier{answer: `{"email": "x@y.nl", "ownerName": "Should Not"}`}
	p := newScenarioPipeline(map[string]string{}, "", tier)

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, model.LeadStatusFailed, out.Status)
	assert.Nil(t, out.InitialEmail)
	assert.Nil(t, out.OwnerName)
	assert.ErrorIs(t, out.Err, ErrTotalFetchFailure)
	assert.NotEmpty(t, out.Error)
	assert.Equal(t, 0, tier.calls)
}

func TestScenario_ContactPageAppended(t *testing.T) {
	tier := &scriptedTier{answer: `{"email": "jan@acme.nl", "ownerName": "Jan de Vries"}`}
	p := newScenarioPipeline(
		map[string]string{
			"https://acme.nl":         "Over Acme. Opgericht door Jan de Vries.",
			"https://acme.nl/contact": "Mail jan@acme.nl",
		},
		"",
		tier,
	)

	out, err := p.Process(context.Background(), Input{Website: "https://acme.nl", PlaceName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusVerified, out.Status)
	assert.Contains(t, tier.prompt, "Over Acme. Opgericht door Jan de Vries."+scrape.ContactDelimiter+"Mail jan@acme.nl")
}
