// Package places resolves a free-text query to candidate businesses through
// the Google Places text search.
package places

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/pkg/google"
)

// Options are passed through to every text search.
type Options struct {
	LanguageCode   string
	RegionCode     string
	MaxResultCount int
}

// Service looks up businesses.
type Service struct {
	client google.Client
	opts   Options
}

// NewService creates a Service.
func NewService(client google.Client, opts Options) *Service {
	return &Service{client: client, opts: opts}
}

// Places returns the places matching query that have a website. Places
// without a website cannot be scraped and are dropped here.
func (s *Service) Places(ctx context.Context, query string) ([]google.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, eris.New("places: query is required")
	}

	resp, err := s.client.TextSearch(ctx, google.TextSearchRequest{
		TextQuery:      query,
		LanguageCode:   s.opts.LanguageCode,
		RegionCode:     s.opts.RegionCode,
		MaxResultCount: s.opts.MaxResultCount,
	})
	if err != nil {
		return nil, eris.Wrap(err, "places: text search")
	}

	out := make([]google.Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		if strings.TrimSpace(p.WebsiteURI) == "" {
			continue
		}
		out = append(out, p)
	}
	zap.L().Info("places: search complete",
		zap.String("query", query),
		zap.Int("found", len(resp.Places)),
		zap.Int("with_website", len(out)),
	)
	return out, nil
}

// Search implements the runner's places lookup.
func (s *Service) Search(ctx context.Context, query string) ([]model.Business, error) {
	found, err := s.Places(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]model.Business, len(found))
	for i, p := range found {
		out[i] = ToBusiness(p)
	}
	return out, nil
}

// ToBusiness converts a place to a Business.
func ToBusiness(p google.Place) model.Business {
	return model.Business{
		ID:         p.ID,
		Name:       strings.TrimSpace(p.DisplayName.Text),
		WebsiteURL: strings.TrimSpace(p.WebsiteURI),
		Address:    strings.TrimSpace(p.FormattedAddress),
	}
}
