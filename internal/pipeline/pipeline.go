// Package pipeline runs the per-business lead extraction: website fetch,
// search enrichment, model extraction and classification.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-engine/internal/extract"
	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/search"
)

// ErrTotalFetchFailure means neither the website nor any search produced
// text, so there was nothing to extract from.
var ErrTotalFetchFailure = eris.New("pipeline: no website content and no search results")

// InputError reports a missing required input field.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("pipeline: %s is required", e.Field)
}

// ContentFetcher resolves a website to text. See scrape.Fetcher.
type ContentFetcher interface {
	Fetch(ctx context.Context, website string) model.FetchResult
}

// SearchEnricher resolves an ownership query to text. See search.Chain.
type SearchEnricher interface {
	Search(ctx context.Context, query string) model.FetchResult
}

// Extractor is the model stage. See extract.Client.
type Extractor interface {
	Extract(ctx context.Context, req extract.Request) (model.ExtractionResult, error)
}

// Input identifies one business.
type Input struct {
	Website   string `json:"website"`
	PlaceName string `json:"placeName"`
	// Locality overrides Options.Locality for the search query.
	Locality string `json:"locality,omitempty"`
}

// Outcome is the terminal result for one business.
type Outcome struct {
	InitialEmail  *string          `json:"initialEmail"`
	OwnerName     *string          `json:"ownerName"`
	VerifiedEmail *string          `json:"verifiedEmail"`
	Status        model.LeadStatus `json:"status"`
	Error         string           `json:"error,omitempty"`

	// Err is the failure behind a failed outcome, if any.
	Err           error  `json:"-"`
	WebsiteSource string `json:"-"`
	SearchSource  string `json:"-"`
}

// Result returns the outcome as an ExtractionResult and Classification.
func (o *Outcome) Result() (model.ExtractionResult, model.Classification) {
	return model.ExtractionResult{Email: o.InitialEmail, OwnerName: o.OwnerName},
		model.Classification{Status: o.Status, VerifiedEmail: o.VerifiedEmail}
}

// Options tunes a Pipeline.
type Options struct {
	Locality  string
	RoleTerms []string
	// WebsiteChars and SearchChars bound each source in the prompt.
	WebsiteChars int
	SearchChars  int
	// SearchPause is waited before the search step.
	SearchPause time.Duration
	// CandidateTimeout bounds one Process call. Zero means no bound.
	CandidateTimeout time.Duration
	// Parallel runs the website fetch and the search concurrently.
	Parallel bool
}

// Pipeline processes one business at a time. It holds no per-business state
// and is safe for concurrent use.
type Pipeline struct {
	fetcher   ContentFetcher
	searcher  SearchEnricher
	extractor Extractor
	opts      Options
	sleep     func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline.
func New(fetcher ContentFetcher, searcher SearchEnricher, extractor Extractor, opts Options) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		searcher:  searcher,
		extractor: extractor,
		opts:      opts,
		sleep:     sleepCtx,
	}
}

// Process runs the pipeline for one business. Only invalid input is
// returned as an error; every other failure yields a failed Outcome with a
// diagnostic message.
func (p *Pipeline) Process(ctx context.Context, in Input) (*Outcome, error) {
	in.Website = strings.TrimSpace(in.Website)
	in.PlaceName = strings.TrimSpace(in.PlaceName)
	if in.Website == "" {
		return nil, &InputError{Field: "website"}
	}
	if in.PlaceName == "" {
		return nil, &InputError{Field: "placeName"}
	}

	if p.opts.CandidateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.CandidateTimeout)
		defer cancel()
	}

	log := zap.L().With(zap.String("business", in.PlaceName), zap.String("website", in.Website))
	start := time.Now()

	site, found := p.gather(ctx, in)
	log.Info("pipeline: sources gathered",
		zap.Bool("website_ok", site.Succeeded),
		zap.String("website_source", site.Source),
		zap.Bool("search_ok", found.Succeeded),
		zap.String("search_source", found.Source),
	)

	out := &Outcome{WebsiteSource: site.Source, SearchSource: found.Source}
	if !site.Succeeded && !found.Succeeded {
		err := ErrTotalFetchFailure
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = eris.Wrap(ctxErr, "pipeline: no content before deadline")
		}
		return out.fail(err), nil
	}

	promptIn := extract.PromptInput{
		BusinessName: in.PlaceName,
		WebsiteURL:   in.Website,
		Locality:     p.locality(in),
		WebsiteText:  site.Text,
		SearchText:   found.Text,
		WebsiteLimit: p.opts.WebsiteChars,
		SearchLimit:  p.opts.SearchChars,
	}
	res, err := p.extractor.Extract(ctx, extract.Request{
		Prompt:         extract.BuildPrompt(promptIn),
		GroundedPrompt: extract.BuildGroundedPrompt(promptIn),
	})
	if err != nil {
		log.Warn("pipeline: extraction failed", zap.Error(err))
		return out.fail(err), nil
	}

	c := Classify(res.Email, res.OwnerName, in.Website)
	res = res.Normalize()
	out.InitialEmail = res.Email
	out.OwnerName = res.OwnerName
	out.VerifiedEmail = c.VerifiedEmail
	out.Status = c.Status

	log.Info("pipeline: lead classified",
		zap.String("status", string(out.Status)),
		zap.Bool("has_email", res.HasEmail()),
		zap.Bool("has_owner", res.HasOwner()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

// gather runs the website fetch and the search enrichment. Neither can fail;
// they only come back empty.
func (p *Pipeline) gather(ctx context.Context, in Input) (model.FetchResult, model.FetchResult) {
	var site, found model.FetchResult

	fetch := func(ctx context.Context) { site = p.fetcher.Fetch(ctx, in.Website) }
	enrich := func(ctx context.Context) {
		if p.searcher == nil {
			return
		}
		if err := p.sleep(ctx, p.opts.SearchPause); err != nil {
			return
		}
		found = p.searcher.Search(ctx, search.OwnerQuery(in.PlaceName, p.locality(in), p.opts.RoleTerms))
	}

	if !p.opts.Parallel {
		fetch(ctx)
		enrich(ctx)
		return site, found
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { fetch(gctx); return nil })
	g.Go(func() error { enrich(gctx); return nil })
	_ = g.Wait()
	return site, found
}

func (p *Pipeline) locality(in Input) string {
	if l := strings.TrimSpace(in.Locality); l != "" {
		return l
	}
	return p.opts.Locality
}

func (o *Outcome) fail(err error) *Outcome {
	o.InitialEmail = nil
	o.OwnerName = nil
	o.VerifiedEmail = nil
	o.Status = model.LeadStatusFailed
	o.Err = err
	o.Error = err.Error()
	return o
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
