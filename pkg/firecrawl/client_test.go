package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-api-key", WithBaseURL(srv.URL))
}

func TestScrape(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantMD     string
		wantErr    string
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/scrape", r.URL.Path)
				assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ScrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://bakkerij.nl", req.URL)
				assert.Equal(t, []string{"markdown"}, req.Formats)
				assert.True(t, req.OnlyMainContent)

				w.Write([]byte(`{"success":true,"data":{"markdown":"# Bakkerij","metadata":{"title":"Bakkerij","statusCode":200}}}`))
			},
			wantMD: "# Bakkerij",
		},
		{
			name: "unsuccessful body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success":false,"error":"blocked"}`))
			},
			wantErr: "blocked",
		},
		{
			name: "auth error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
			},
			wantErr:    "HTTP 401",
			wantStatus: 401,
		},
		{
			name: "payment required",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusPaymentRequired)
			},
			wantErr:    "HTTP 402",
			wantStatus: 402,
		},
		{
			name: "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{not json`))
			},
			wantErr: "decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://bakkerij.nl", OnlyMainContent: true})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				if tt.wantStatus != 0 {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.HTTPStatus())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMD, resp.Data.Markdown)
			assert.Equal(t, "Bakkerij", resp.Data.Metadata.Title)
		})
	}
}

func TestScrape_ContextCancelled(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Scrape(ctx, ScrapeRequest{URL: "https://bakkerij.nl"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBaseURL_EmptyKeepsDefault(t *testing.T) {
	c := NewClient("k", WithBaseURL("")).(*httpClient)
	assert.Equal(t, defaultBaseURL, c.baseURL)
}
