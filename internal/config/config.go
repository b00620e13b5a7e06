package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Strategy and tier names accepted in the ordered provider lists.
const (
	ProviderFirecrawl  = "firecrawl"
	ProviderJina       = "jina"
	ProviderLocal      = "local"
	ProviderPerplexity = "perplexity"
	ProviderBrave      = "brave"
	ProviderDuckDuckGo = "duckduckgo"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// Config holds the full application configuration.
type Config struct {
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key            string `yaml:"key" mapstructure:"key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	LanguageCode   string `yaml:"language_code" mapstructure:"language_code"`
	RegionCode     string `yaml:"region_code" mapstructure:"region_code"`
	MaxResultCount int    `yaml:"max_result_count" mapstructure:"max_result_count"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings for the text-only tier.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Gemini API settings for the grounded tier.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures the website fetch waterfall.
type ScrapeConfig struct {
	Strategies     []string `yaml:"strategies" mapstructure:"strategies"`
	MaxChars       int      `yaml:"max_chars" mapstructure:"max_chars"`
	TimeoutSecs    int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent      string   `yaml:"user_agent" mapstructure:"user_agent"`
	ContactPath    string   `yaml:"contact_path" mapstructure:"contact_path"`
	ContactPauseMs int      `yaml:"contact_pause_ms" mapstructure:"contact_pause_ms"`
}

// SearchConfig configures the enrichment search waterfall.
type SearchConfig struct {
	Strategies  []string `yaml:"strategies" mapstructure:"strategies"`
	Locality    string   `yaml:"locality" mapstructure:"locality"`
	RoleTerms   []string `yaml:"role_terms" mapstructure:"role_terms"`
	MaxChars    int      `yaml:"max_chars" mapstructure:"max_chars"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string   `yaml:"user_agent" mapstructure:"user_agent"`
	Region      string   `yaml:"region" mapstructure:"region"`
}

// ExtractConfig configures the model tiers.
type ExtractConfig struct {
	Tiers        []string `yaml:"tiers" mapstructure:"tiers"`
	Temperature  float64  `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens    int      `yaml:"max_tokens" mapstructure:"max_tokens"`
	WebsiteChars int      `yaml:"website_chars" mapstructure:"website_chars"`
	SearchChars  int      `yaml:"search_chars" mapstructure:"search_chars"`
}

// PipelineConfig configures per-candidate sequencing.
type PipelineConfig struct {
	SearchPauseMs        int  `yaml:"search_pause_ms" mapstructure:"search_pause_ms"`
	CandidatePauseMs     int  `yaml:"candidate_pause_ms" mapstructure:"candidate_pause_ms"`
	CandidateTimeoutSecs int  `yaml:"candidate_timeout_secs" mapstructure:"candidate_timeout_secs"`
	ParallelEnrichment   bool `yaml:"parallel_enrichment" mapstructure:"parallel_enrichment"`
}

// CacheConfig configures the optional scraped-page cache.
type CacheConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	TTLHours int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Durations derived from the millisecond/second settings.

func (c ScrapeConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }
func (c ScrapeConfig) ContactPause() time.Duration {
	return time.Duration(c.ContactPauseMs) * time.Millisecond
}
func (c SearchConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSecs) * time.Second }
func (c PipelineConfig) SearchPause() time.Duration {
	return time.Duration(c.SearchPauseMs) * time.Millisecond
}
func (c PipelineConfig) CandidatePause() time.Duration {
	return time.Duration(c.CandidatePauseMs) * time.Millisecond
}
func (c PipelineConfig) CandidateTimeout() time.Duration {
	return time.Duration(c.CandidateTimeoutSecs) * time.Second
}
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLHours) * time.Hour }

// legacyEnv maps config keys to the bare provider variables the hosted
// deployment already exports.
var legacyEnv = map[string]string{
	"google.key":     "GOOGLE_PLACES_API_KEY",
	"firecrawl.key":  "FIRECRAWL_API_KEY",
	"jina.key":       "JINA_API_KEY",
	"perplexity.key": "PERPLEXITY_API_KEY",
	"anthropic.key":  "ANTHROPIC_API_KEY",
	"gemini.key":     "GEMINI_API_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "LEADS_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.language_code", "nl")
	v.SetDefault("google.region_code", "")
	v.SetDefault("google.max_result_count", 10)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("scrape.strategies", []string{ProviderFirecrawl, ProviderLocal})
	v.SetDefault("scrape.max_chars", 15000)
	v.SetDefault("scrape.timeout_secs", 20)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	v.SetDefault("scrape.contact_path", "contact")
	v.SetDefault("scrape.contact_pause_ms", 2000)
	v.SetDefault("search.strategies", []string{ProviderJina, ProviderBrave, ProviderDuckDuckGo})
	v.SetDefault("search.locality", "Amsterdam")
	v.SetDefault("search.role_terms", []string{"eigenaar", "oprichter", "owner", "founder", "LinkedIn"})
	v.SetDefault("search.max_chars", 15000)
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("search.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	v.SetDefault("search.region", "nl-nl")
	v.SetDefault("extract.tiers", []string{ProviderAnthropic})
	v.SetDefault("extract.temperature", 0.2)
	v.SetDefault("extract.max_tokens", 512)
	v.SetDefault("extract.website_chars", 15000)
	v.SetDefault("extract.search_chars", 15000)
	v.SetDefault("pipeline.search_pause_ms", 2000)
	v.SetDefault("pipeline.candidate_pause_ms", 2500)
	v.SetDefault("pipeline.candidate_timeout_secs", 60)
	v.SetDefault("pipeline.parallel_enrichment", false)
	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.ttl_hours", 24)
	v.SetDefault("breaker.failure_threshold", 3)
	v.SetDefault("breaker.reset_timeout_secs", 60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for the given run mode. In pipeline
// mode every provider named in an ordered strategy or tier list must be
// known and must have its credential, so a missing key fails at startup
// rather than per candidate. The server starts without credentials and
// reports the missing provider per request instead.
//
// Modes: "serve", "pipeline", "places", "cache".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateCache(false)...)
	case "pipeline":
		errs = append(errs, c.validatePipeline()...)
		errs = append(errs, c.validateCache(false)...)
	case "places":
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
		if c.Google.MaxResultCount < 1 || c.Google.MaxResultCount > 20 {
			errs = append(errs, "google.max_result_count must be between 1 and 20")
		}
	case "cache":
		errs = append(errs, c.validateCache(true)...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var errs []string

	check := func(list, name string, allowed map[string]string) {
		keyField, ok := allowed[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("%s: unknown provider %q", list, name))
			return
		}
		if keyField != "" && c.credential(name) == "" {
			errs = append(errs, fmt.Sprintf("%s is required by %s %q", keyField, list, name))
		}
	}

	scrapers := map[string]string{
		ProviderFirecrawl: "firecrawl.key",
		ProviderJina:      "jina.key",
		ProviderLocal:     "",
	}
	if len(c.Scrape.Strategies) == 0 {
		errs = append(errs, "scrape.strategies must not be empty")
	}
	for _, s := range c.Scrape.Strategies {
		check("scrape.strategies", s, scrapers)
	}

	searchers := map[string]string{
		ProviderJina:       "jina.key",
		ProviderPerplexity: "perplexity.key",
		ProviderBrave:      "",
		ProviderDuckDuckGo: "",
	}
	for _, s := range c.Search.Strategies {
		check("search.strategies", s, searchers)
	}

	tiers := map[string]string{
		ProviderAnthropic: "anthropic.key",
		ProviderGemini:    "gemini.key",
	}
	if len(c.Extract.Tiers) == 0 {
		errs = append(errs, "extract.tiers must not be empty")
	}
	for _, t := range c.Extract.Tiers {
		check("extract.tiers", t, tiers)
	}

	if c.Extract.Temperature < 0 || c.Extract.Temperature > 1 {
		errs = append(errs, "extract.temperature must be between 0 and 1")
	}
	if c.Pipeline.SearchPauseMs < 0 || c.Pipeline.CandidatePauseMs < 0 {
		errs = append(errs, "pipeline pauses must be >= 0")
	}
	if c.Pipeline.CandidateTimeoutSecs <= 0 {
		errs = append(errs, "pipeline.candidate_timeout_secs must be > 0")
	}
	return errs
}

func (c *Config) validateCache(required bool) []string {
	switch c.Cache.Driver {
	case "", "none":
		if required {
			return []string{"cache.driver must be sqlite or postgres"}
		}
	case "sqlite", "postgres":
		if c.Cache.DSN == "" {
			return []string{fmt.Sprintf("cache.dsn is required for driver %q", c.Cache.Driver)}
		}
	default:
		return []string{fmt.Sprintf("cache.driver %q is not supported", c.Cache.Driver)}
	}
	return nil
}

func (c *Config) credential(provider string) string {
	switch provider {
	case ProviderFirecrawl:
		return c.Firecrawl.Key
	case ProviderJina:
		return c.Jina.Key
	case ProviderPerplexity:
		return c.Perplexity.Key
	case ProviderAnthropic:
		return c.Anthropic.Key
	case ProviderGemini:
		return c.Gemini.Key
	}
	return ""
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
