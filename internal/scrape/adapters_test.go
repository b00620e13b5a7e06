package scrape

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/pkg/firecrawl"
	firecrawlmocks "github.com/sells-group/lead-engine/pkg/firecrawl/mocks"
	"github.com/sells-group/lead-engine/pkg/jina"
	jinamocks "github.com/sells-group/lead-engine/pkg/jina/mocks"
)

func TestFirecrawlAdapter_Scrape_Success(t *testing.T) {
	t.Parallel()
	client := firecrawlmocks.NewMockClient(t)
	adapter := NewFirecrawlAdapter(client)

	client.On("Scrape", context.Background(), firecrawl.ScrapeRequest{
		URL:             "https://demolen.nl",
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	}).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			Markdown: "# Bakkerij de Molen\n\ninfo@demolen.nl",
			Metadata: firecrawl.Metadata{Title: "De Molen", StatusCode: 200},
		},
	}, nil)

	result, err := adapter.Scrape(context.Background(), "https://demolen.nl")
	require.NoError(t, err)
	assert.Equal(t, "firecrawl", result.Source)
	assert.Equal(t, "https://demolen.nl", result.Page.URL)
	assert.Equal(t, "De Molen", result.Page.Title)
	assert.Contains(t, result.Page.Markdown, "info@demolen.nl")
}

func TestFirecrawlAdapter_Scrape_EmptyMarkdown(t *testing.T) {
	t.Parallel()
	client := firecrawlmocks.NewMockClient(t)
	client.On("Scrape", context.Background(), firecrawl.ScrapeRequest{
		URL: "https://demolen.nl", Formats: []string{"markdown"}, OnlyMainContent: true,
	}).Return(&firecrawl.ScrapeResponse{Success: true}, nil)

	_, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://demolen.nl")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrNoContent)
}

func TestFirecrawlAdapter_Scrape_Error(t *testing.T) {
	t.Parallel()
	client := firecrawlmocks.NewMockClient(t)
	client.On("Scrape", context.Background(), firecrawl.ScrapeRequest{
		URL: "https://demolen.nl", Formats: []string{"markdown"}, OnlyMainContent: true,
	}).Return(nil, errors.New("timeout"))

	_, err := NewFirecrawlAdapter(client).Scrape(context.Background(), "https://demolen.nl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestJinaAdapter_Scrape_Success(t *testing.T) {
	t.Parallel()
	client := jinamocks.NewMockClient(t)
	content := "# Bakkerij de Molen\n\n" + strings.Repeat("Vers brood, elke dag gebakken. ", 10)
	client.On("Read", context.Background(), "https://demolen.nl").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Title: "De Molen", Content: content},
	}, nil)

	result, err := NewJinaAdapter(client).Scrape(context.Background(), "https://demolen.nl")
	require.NoError(t, err)
	assert.Equal(t, "jina", result.Source)
	assert.Equal(t, "https://demolen.nl", result.Page.URL)
	assert.Equal(t, content, result.Page.Markdown)
}

func TestJinaAdapter_Scrape_Challenge(t *testing.T) {
	t.Parallel()
	client := jinamocks.NewMockClient(t)
	client.On("Read", context.Background(), "https://demolen.nl").Return(&jina.ReadResponse{
		Code: 200,
		Data: jina.ReadData{Content: "Just a moment... Checking your browser before accessing demolen.nl. This process is automatic."},
	}, nil)

	_, err := NewJinaAdapter(client).Scrape(context.Background(), "https://demolen.nl")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrNoContent)
}

func TestNeedsFallback(t *testing.T) {
	long := strings.Repeat("Over ons: familiebedrijf sinds 1952. ", 40)
	tests := []struct {
		name string
		resp *jina.ReadResponse
		want bool
	}{
		{"nil", nil, true},
		{"error code", &jina.ReadResponse{Code: 451, Data: jina.ReadData{Content: long}}, true},
		{"short", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: "hi"}}, true},
		{"challenge", &jina.ReadResponse{Data: jina.ReadData{Content: strings.Repeat("x", 120) + " access denied"}}, true},
		{"long page mentioning cookies", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: long + " please enable cookies"}}, false},
		{"normal", &jina.ReadResponse{Code: 200, Data: jina.ReadData{Content: long}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, needsFallback(tt.resp))
		})
	}
}
