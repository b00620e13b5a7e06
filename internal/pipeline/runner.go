package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-engine/internal/model"
)

// PlacesSearcher resolves a free-text query to candidate businesses.
type PlacesSearcher interface {
	Search(ctx context.Context, query string) ([]model.Business, error)
}

// Processor runs the pipeline for one business.
type Processor interface {
	Process(ctx context.Context, in Input) (*Outcome, error)
}

// RunSummary counts the terminal statuses of one run.
type RunSummary struct {
	RunID    string        `json:"runId"`
	Query    string        `json:"query"`
	Total    int           `json:"total"`
	Verified int           `json:"verified"`
	General  int           `json:"general"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (s *RunSummary) count(status model.LeadStatus) {
	switch status {
	case model.LeadStatusVerified:
		s.Verified++
	case model.LeadStatusGeneral:
		s.General++
	default:
		s.Failed++
	}
}

// Runner drives a whole query: places lookup, then every business through
// the Processor one after the other with a pause between them.
type Runner struct {
	places   PlacesSearcher
	proc     Processor
	locality string
	pause    time.Duration
}

// NewRunner creates a Runner that waits pause after each business finishes
// before starting the next one.
func NewRunner(places PlacesSearcher, proc Processor, locality string, pause time.Duration) *Runner {
	return &Runner{
		places:   places,
		proc:     proc,
		locality: locality,
		pause:    pause,
	}
}

// newPacer returns a limiter whose single token is taken when a business
// finishes, so Wait blocks until pause has passed since that moment.
func (r *Runner) newPacer() *rate.Limiter {
	if r.pause <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(r.pause), 1)
}

// Run looks up query and processes every business that has a website. emit
// is called with each lead when it is created (status crawling) and again
// when it reaches its terminal status. A failing business never stops the
// run; cancelling ctx fails the remaining leads and returns ctx's error.
func (r *Runner) Run(ctx context.Context, query string, emit func(model.Lead)) (*RunSummary, error) {
	if emit == nil {
		emit = func(model.Lead) {}
	}
	start := time.Now()
	summary := &RunSummary{RunID: uuid.NewString(), Query: query}
	log := zap.L().With(zap.String("run_id", summary.RunID), zap.String("query", query))

	businesses, err := r.places.Search(ctx, query)
	if err != nil {
		return summary, eris.Wrap(err, "pipeline: places lookup")
	}

	leads := make([]model.Lead, 0, len(businesses))
	for _, b := range businesses {
		if !b.HasWebsite() {
			continue
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		lead := model.NewLead(b)
		leads = append(leads, lead)
		emit(lead)
	}
	summary.Total = len(leads)
	log.Info("pipeline: run started", zap.Int("businesses", len(businesses)), zap.Int("leads", len(leads)))

	pacer := r.newPacer()
	var runErr error
	for i := range leads {
		lead := &leads[i]

		if runErr == nil {
			if i > 0 {
				if err := pacer.Wait(ctx); err != nil {
					runErr = err
				}
			}
			if runErr == nil {
				runErr = ctx.Err()
			}
		}
		if runErr != nil {
			lead.Fail("cancelled: " + runErr.Error())
			summary.count(lead.Status)
			emit(*lead)
			continue
		}

		r.processLead(ctx, lead)
		pacer.Reserve()
		summary.count(lead.Status)
		emit(*lead)
	}

	summary.Duration = time.Since(start)
	log.Info("pipeline: run finished",
		zap.Int("verified", summary.Verified),
		zap.Int("general", summary.General),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	if runErr != nil {
		return summary, eris.Wrap(runErr, "pipeline: run cancelled")
	}
	return summary, nil
}

func (r *Runner) processLead(ctx context.Context, lead *model.Lead) {
	out, err := r.proc.Process(ctx, Input{Website: lead.Website, PlaceName: lead.Name, Locality: r.locality})
	if err != nil {
		lead.Fail(err.Error())
		return
	}
	res, c := out.Result()
	lead.Complete(res, c, out.Error)
}
