package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/pkg/gemini"
)

// GeminiTier is a grounded tier: the model runs its own Google searches, so
// it gets Request.GroundedPrompt.
type GeminiTier struct {
	client      gemini.Client
	temperature float64
}

// NewGeminiTier creates a GeminiTier.
func NewGeminiTier(client gemini.Client, temperature float64) *GeminiTier {
	return &GeminiTier{client: client, temperature: temperature}
}

// Name implements Tier.
func (g *GeminiTier) Name() string { return "gemini" }

// Generate implements Tier. Without a grounded prompt it falls back to the
// text-only prompt.
func (g *GeminiTier) Generate(ctx context.Context, req Request) (string, error) {
	prompt := req.GroundedPrompt
	if prompt == "" {
		prompt = req.Prompt
	}
	if prompt == "" {
		return "", eris.New("gemini: empty prompt")
	}

	temp := g.temperature
	resp, err := g.client.Generate(ctx, gemini.GenerateRequest{
		Prompt:      prompt,
		Grounded:    true,
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate")
	}
	zap.L().Debug("extract: grounded answer",
		zap.Int("sources", len(resp.Sources)),
		zap.Strings("queries", resp.Queries),
	)
	return resp.Text, nil
}
