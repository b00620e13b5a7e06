package search

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/pkg/perplexity"
)

const perplexitySystemPrompt = `You research small businesses. Given a search query about a business, ` +
	`report what public sources say about who owns or founded it. Quote names exactly as they appear ` +
	`and mention the source. Do not report managers or other staff as owners. ` +
	`If nothing is found, say so in one sentence.`

// PerplexitySearcher asks the Perplexity answer engine about ownership and
// returns its answer with citations.
type PerplexitySearcher struct {
	client  perplexity.Client
	country string
}

// NewPerplexitySearcher creates a PerplexitySearcher. country is an ISO
// country code used to bias the web search.
func NewPerplexitySearcher(client perplexity.Client, country string) *PerplexitySearcher {
	return &PerplexitySearcher{client: client, country: country}
}

// Name implements Searcher.
func (p *PerplexitySearcher) Name() string { return "perplexity" }

// Search implements Searcher.
func (p *PerplexitySearcher) Search(ctx context.Context, query string) (string, error) {
	temp := 0.0
	req := perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: perplexitySystemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: &temp,
		WebSearchOptions: &perplexity.WebSearchOptions{
			SearchContextSize: "medium",
		},
	}
	if p.country != "" {
		req.WebSearchOptions.UserLocation = &perplexity.UserLocation{Country: strings.ToUpper(p.country)}
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "perplexity: search")
	}
	text := resp.Text()
	if text == "" {
		return "", eris.Wrap(resilience.ErrNoContent, "perplexity: empty answer")
	}
	return text, nil
}
