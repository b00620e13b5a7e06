package extract

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/pkg/anthropic"
)

// AnthropicTier is a text-only tier. It sees the search enrichment text in
// Request.Prompt in place of live grounding.
type AnthropicTier struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicTier creates an AnthropicTier. A non-positive maxTokens means 512.
func NewAnthropicTier(client anthropic.Client, model string, maxTokens int, temperature float64) *AnthropicTier {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &AnthropicTier{client: client, model: model, maxTokens: int64(maxTokens), temperature: temperature}
}

// Name implements Tier.
func (a *AnthropicTier) Name() string { return "anthropic" }

// Generate implements Tier.
func (a *AnthropicTier) Generate(ctx context.Context, req Request) (string, error) {
	if req.Prompt == "" {
		return "", eris.New("anthropic: empty prompt")
	}
	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}
	resp.Usage.LogCost(a.model, "extract")
	return resp.Text(), nil
}
