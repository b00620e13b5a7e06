// Package extract turns fetched website and search text into a
// two-field ExtractionResult by asking one or more model tiers.
package extract

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
)

// ErrNoTiers is returned by Extract when no tier is configured.
var ErrNoTiers = eris.New("extract: no model tiers configured")

// ErrorKind classifies an ExtractionError.
type ErrorKind string

// Extraction failure kinds.
const (
	// KindCall is a failed model call (network, auth, quota).
	KindCall ErrorKind = "call"
	// KindMalformed is output that does not parse as the two-key object.
	KindMalformed ErrorKind = "malformed"
)

// ExtractionError is a tier failure.
type ExtractionError struct {
	Tier string
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: tier %s: %s: %v", e.Tier, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Request carries both prompt variants so each tier can pick its own.
type Request struct {
	// Prompt includes website and search text, for text-only tiers.
	Prompt string
	// GroundedPrompt includes website text only, for tiers that search.
	GroundedPrompt string
}

// Tier is one model behind the extraction contract.
type Tier interface {
	Name() string
	// Generate returns the raw model text for req.
	Generate(ctx context.Context, req Request) (string, error)
}

// Client runs the tiers in order until one names an owner.
type Client struct {
	tiers []Tier
}

// NewClient creates a Client over tiers in priority order.
func NewClient(tiers ...Tier) *Client {
	return &Client{tiers: tiers}
}

// Names returns the tier names in order.
func (c *Client) Names() []string {
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.Name()
	}
	return names
}

// Extract asks each tier in turn. A tier that returns an owner name ends the
// search; its result is completed with an email found by an earlier tier if
// it has none. When no tier names an owner, the best parsed result is
// returned (one with an email wins). Only when every tier fails is an error
// returned, and it is the last tier's *ExtractionError.
func (c *Client) Extract(ctx context.Context, req Request) (model.ExtractionResult, error) {
	if len(c.tiers) == 0 {
		return model.ExtractionResult{}, ErrNoTiers
	}

	var (
		best    *model.ExtractionResult
		lastErr error
	)
	for _, t := range c.tiers {
		if err := ctx.Err(); err != nil {
			lastErr = &ExtractionError{Tier: t.Name(), Kind: KindCall, Err: err}
			break
		}

		res, err := c.run(ctx, t, req)
		if err != nil {
			zap.L().Warn("extract: tier failed", zap.String("tier", t.Name()), zap.Error(err))
			lastErr = err
			continue
		}

		if res.HasOwner() {
			if !res.HasEmail() && best != nil {
				res.Email = best.Email
			}
			return res, nil
		}

		zap.L().Debug("extract: tier found no owner",
			zap.String("tier", t.Name()),
			zap.Bool("has_email", res.HasEmail()),
		)
		if best == nil || (!best.HasEmail() && res.HasEmail()) {
			r := res
			best = &r
		}
	}

	if best != nil {
		return *best, nil
	}
	return model.ExtractionResult{}, lastErr
}

func (c *Client) run(ctx context.Context, t Tier, req Request) (model.ExtractionResult, error) {
	raw, err := t.Generate(ctx, req)
	if err != nil {
		return model.ExtractionResult{}, &ExtractionError{Tier: t.Name(), Kind: KindCall, Err: err}
	}
	res, err := Parse(raw)
	if err != nil {
		return model.ExtractionResult{}, &ExtractionError{Tier: t.Name(), Kind: KindMalformed, Err: err}
	}
	return res, nil
}
