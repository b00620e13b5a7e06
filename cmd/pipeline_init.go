package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/config"
	"github.com/sells-group/lead-engine/internal/extract"
	"github.com/sells-group/lead-engine/internal/pipeline"
	"github.com/sells-group/lead-engine/internal/places"
	"github.com/sells-group/lead-engine/internal/resilience"
	"github.com/sells-group/lead-engine/internal/scrape"
	"github.com/sells-group/lead-engine/internal/search"
	"github.com/sells-group/lead-engine/internal/store"
	anthropicpkg "github.com/sells-group/lead-engine/pkg/anthropic"
	"github.com/sells-group/lead-engine/pkg/firecrawl"
	"github.com/sells-group/lead-engine/pkg/gemini"
	"github.com/sells-group/lead-engine/pkg/google"
	"github.com/sells-group/lead-engine/pkg/jina"
	"github.com/sells-group/lead-engine/pkg/perplexity"
)

// pipelineEnv holds the initialized clients and the pipeline needed by the
// search/extract/serve commands. Places, Pipeline and Runner are nil when
// the providers they need have no credentials.
type pipelineEnv struct {
	Store    store.Store // nil when caching is disabled
	Breakers *resilience.Registry
	Places   *places.Service
	Pipeline *pipeline.Pipeline
	Runner   *pipeline.Runner
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline builds the clients, the waterfalls and the pipeline from cfg.
// Providers without a credential are skipped with a warning; callers that
// need them validate the config first.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "open page cache")
	}

	env := &pipelineEnv{
		Store:    st,
		Breakers: resilience.NewRegistry(resilience.FromConfig(cfg.Breaker.FailureThreshold, cfg.Breaker.ResetTimeoutSecs)),
	}

	if cfg.Google.Key != "" {
		opts := []google.Option{}
		if cfg.Google.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(cfg.Google.BaseURL))
		}
		env.Places = places.NewService(google.NewClient(cfg.Google.Key, opts...), places.Options{
			LanguageCode:   cfg.Google.LanguageCode,
			RegionCode:     cfg.Google.RegionCode,
			MaxResultCount: cfg.Google.MaxResultCount,
		})
	} else {
		zap.L().Warn("google.key not set, places lookup disabled")
	}

	extractor, err := buildExtractor(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}
	if extractor == nil {
		zap.L().Warn("no extraction tier has credentials, extraction disabled")
		return env, nil
	}

	chain := buildScrapeChain(env.Breakers, st)
	fetcher := scrape.NewFetcher(chain, scrape.FetcherConfig{
		MaxChars:     cfg.Scrape.MaxChars,
		ContactPath:  cfg.Scrape.ContactPath,
		ContactPause: cfg.Scrape.ContactPause(),
	})

	var enricher pipeline.SearchEnricher
	if sc := buildSearchChain(env.Breakers); len(sc.Names()) > 0 {
		enricher = sc
	}

	env.Pipeline = pipeline.New(fetcher, enricher, extractor, pipeline.Options{
		Locality:         cfg.Search.Locality,
		RoleTerms:        cfg.Search.RoleTerms,
		WebsiteChars:     cfg.Extract.WebsiteChars,
		SearchChars:      cfg.Extract.SearchChars,
		SearchPause:      cfg.Pipeline.SearchPause(),
		CandidateTimeout: cfg.Pipeline.CandidateTimeout(),
		Parallel:         cfg.Pipeline.ParallelEnrichment,
	})
	if env.Places != nil {
		env.Runner = pipeline.NewRunner(env.Places, env.Pipeline, cfg.Search.Locality, cfg.Pipeline.CandidatePause())
	}

	zap.L().Info("pipeline ready",
		zap.Strings("scrape", chain.Names()),
		zap.Strings("extract", extractor.Names()),
		zap.Bool("places", env.Places != nil),
		zap.Bool("cache", st != nil),
	)
	return env, nil
}

// buildScrapeChain creates the fetch waterfall in scrape.strategies order.
// With a cache configured every strategy reads through it.
func buildScrapeChain(reg *resilience.Registry, st store.Store) *scrape.Chain {
	var scrapers []scrape.Scraper
	for _, name := range cfg.Scrape.Strategies {
		var s scrape.Scraper
		switch name {
		case config.ProviderFirecrawl:
			if cfg.Firecrawl.Key == "" {
				zap.L().Warn("firecrawl.key not set, skipping scrape strategy", zap.String("strategy", name))
				continue
			}
			s = scrape.NewFirecrawlAdapter(firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL)))
		case config.ProviderJina:
			if cfg.Jina.Key == "" {
				zap.L().Warn("jina.key not set, skipping scrape strategy", zap.String("strategy", name))
				continue
			}
			s = scrape.NewJinaAdapter(newJinaClient())
		case config.ProviderLocal:
			opts := []scrape.LocalOption{}
			if cfg.Scrape.UserAgent != "" {
				opts = append(opts, scrape.WithUserAgent(cfg.Scrape.UserAgent))
			}
			if cfg.Scrape.TimeoutSecs > 0 {
				opts = append(opts, scrape.WithTimeout(cfg.Scrape.Timeout()))
			}
			s = scrape.NewLocalScraper(opts...)
		default:
			zap.L().Warn("unknown scrape strategy", zap.String("strategy", name))
			continue
		}
		if st != nil {
			s = scrape.NewCachedScraper(s, st, cfg.Cache.TTL())
		}
		scrapers = append(scrapers, s)
	}
	return scrape.NewChain(scrapers...).WithBreakers(reg)
}

// buildSearchChain creates the enrichment waterfall in search.strategies order.
func buildSearchChain(reg *resilience.Registry) *search.Chain {
	htmlOpts := []search.HTMLOption{}
	if cfg.Search.UserAgent != "" {
		htmlOpts = append(htmlOpts, search.WithUserAgent(cfg.Search.UserAgent))
	}
	if cfg.Search.TimeoutSecs > 0 {
		htmlOpts = append(htmlOpts, search.WithTimeout(cfg.Search.Timeout()))
	}
	country := cfg.Google.RegionCode
	if country == "" {
		country = cfg.Google.LanguageCode
	}

	var searchers []search.Searcher
	for _, name := range cfg.Search.Strategies {
		switch name {
		case config.ProviderJina:
			if cfg.Jina.Key == "" {
				zap.L().Warn("jina.key not set, skipping search strategy", zap.String("strategy", name))
				continue
			}
			searchers = append(searchers, search.NewJinaSearcher(newJinaClient(), country))
		case config.ProviderPerplexity:
			if cfg.Perplexity.Key == "" {
				zap.L().Warn("perplexity.key not set, skipping search strategy", zap.String("strategy", name))
				continue
			}
			client := perplexity.NewClient(cfg.Perplexity.Key, perplexity.WithBaseURL(cfg.Perplexity.BaseURL), perplexity.WithModel(cfg.Perplexity.Model))
			searchers = append(searchers, search.NewPerplexitySearcher(client, country))
		case config.ProviderBrave:
			searchers = append(searchers, search.NewBraveSearcher(htmlOpts...))
		case config.ProviderDuckDuckGo:
			opts := htmlOpts
			if cfg.Search.Region != "" {
				opts = append(append([]search.HTMLOption{}, htmlOpts...), search.WithRegion(cfg.Search.Region))
			}
			searchers = append(searchers, search.NewDuckDuckGoSearcher(opts...))
		default:
			zap.L().Warn("unknown search strategy", zap.String("strategy", name))
		}
	}
	return search.NewChain(cfg.Search.MaxChars, searchers...).WithBreakers(reg)
}

// buildExtractor creates the model tiers in extract.tiers order. It returns
// nil when no tier has a credential.
func buildExtractor(ctx context.Context) (*extract.Client, error) {
	var tiers []extract.Tier
	for _, name := range cfg.Extract.Tiers {
		switch name {
		case config.ProviderAnthropic:
			if cfg.Anthropic.Key == "" {
				zap.L().Warn("anthropic.key not set, skipping extraction tier")
				continue
			}
			client := anthropicpkg.NewClient(cfg.Anthropic.Key)
			tiers = append(tiers, extract.NewAnthropicTier(client, cfg.Anthropic.Model, cfg.Extract.MaxTokens, cfg.Extract.Temperature))
		case config.ProviderGemini:
			if cfg.Gemini.Key == "" {
				zap.L().Warn("gemini.key not set, skipping extraction tier")
				continue
			}
			client, err := gemini.NewClient(ctx, gemini.Config{
				APIKey:  cfg.Gemini.Key,
				Model:   cfg.Gemini.Model,
				BaseURL: cfg.Gemini.BaseURL,
			})
			if err != nil {
				return nil, eris.Wrap(err, "init gemini tier")
			}
			tiers = append(tiers, extract.NewGeminiTier(client, cfg.Extract.Temperature))
		default:
			zap.L().Warn("unknown extraction tier", zap.String("tier", name))
		}
	}
	if len(tiers) == 0 {
		return nil, nil
	}
	return extract.NewClient(tiers...), nil
}

func newJinaClient() jina.Client {
	opts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		opts = append(opts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	return jina.NewClient(cfg.Jina.Key, opts...)
}
