package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "nl", cfg.Google.LanguageCode)
	assert.Equal(t, 10, cfg.Google.MaxResultCount)
	assert.Equal(t, "https://api.firecrawl.dev/v1", cfg.Firecrawl.BaseURL)
	assert.Equal(t, "https://r.jina.ai", cfg.Jina.BaseURL)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, []string{"firecrawl", "local"}, cfg.Scrape.Strategies)
	assert.Equal(t, 15000, cfg.Scrape.MaxChars)
	assert.Equal(t, "contact", cfg.Scrape.ContactPath)
	assert.Equal(t, 2*time.Second, cfg.Scrape.ContactPause())
	assert.Equal(t, []string{"jina", "brave", "duckduckgo"}, cfg.Search.Strategies)
	assert.Equal(t, "Amsterdam", cfg.Search.Locality)
	assert.Contains(t, cfg.Search.RoleTerms, "eigenaar")
	assert.Equal(t, []string{"anthropic"}, cfg.Extract.Tiers)
	assert.InDelta(t, 0.2, cfg.Extract.Temperature, 0.001)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.SearchPause())
	assert.Equal(t, 2500*time.Millisecond, cfg.Pipeline.CandidatePause())
	assert.Equal(t, time.Minute, cfg.Pipeline.CandidateTimeout())
	assert.False(t, cfg.Pipeline.ParallelEnrichment)
	assert.Equal(t, "none", cfg.Cache.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 3, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 60, cfg.Breaker.ResetTimeoutSecs)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
search:
  locality: Utrecht
  strategies: [duckduckgo]
cache:
  driver: sqlite
  dsn: leads.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Utrecht", cfg.Search.Locality)
	assert.Equal(t, []string{"duckduckgo"}, cfg.Search.Strategies)
	assert.Equal(t, "sqlite", cfg.Cache.Driver)
	assert.Equal(t, "leads.db", cfg.Cache.DSN)
	// Defaults still apply for unset values
	assert.Equal(t, 15000, cfg.Scrape.MaxChars)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
search:
  locality: Utrecht
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LEADS_LOG_LEVEL", "warn")
	t.Setenv("LEADS_SEARCH_LOCALITY", "Rotterdam")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "Rotterdam", cfg.Search.Locality)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADS_SERVER_PORT", "3000")
	t.Setenv("LEADS_PIPELINE_PARALLEL_ENRICHMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.True(t, cfg.Pipeline.ParallelEnrichment)
}

func TestLoadLegacyKeyEnv(t *testing.T) {
	chdirTemp(t)

	t.Setenv("GOOGLE_PLACES_API_KEY", "places-key")
	t.Setenv("FIRECRAWL_API_KEY", "fc-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "places-key", cfg.Google.Key)
	assert.Equal(t, "fc-key", cfg.Firecrawl.Key)
}

func TestLoadPrefixedKeyWins(t *testing.T) {
	chdirTemp(t)

	t.Setenv("LEADS_ANTHROPIC_KEY", "prefixed")
	t.Setenv("ANTHROPIC_API_KEY", "bare")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Anthropic.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes pipeline validation.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Scrape.Strategies = []string{ProviderLocal}
	cfg.Search.Strategies = []string{ProviderBrave, ProviderDuckDuckGo}
	cfg.Extract.Tiers = []string{ProviderAnthropic}
	cfg.Extract.Temperature = 0.2
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Pipeline.CandidateTimeoutSecs = 60
	cfg.Cache.Driver = "none"
	return cfg
}

func TestValidateServe_Valid(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("serve"))
}

func TestValidateServe_NoCredentialsRequired(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Extract.Tiers = nil

	assert.NoError(t, cfg.Validate("serve"))
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidatePipeline_MissingCredentials(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Scrape.Strategies = []string{ProviderFirecrawl, ProviderLocal}
	cfg.Search.Strategies = []string{ProviderJina, ProviderPerplexity}

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "firecrawl.key is required")
	assert.Contains(t, err.Error(), "jina.key is required")
	assert.Contains(t, err.Error(), "perplexity.key is required")
}

func TestValidatePipeline_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.Tiers = []string{"openai"}

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "openai"`)
}

func TestValidatePipeline_EmptyLists(t *testing.T) {
	cfg := validDefaults()
	cfg.Scrape.Strategies = nil
	cfg.Extract.Tiers = nil

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scrape.strategies must not be empty")
	assert.Contains(t, err.Error(), "extract.tiers must not be empty")
}

func TestValidatePipeline_NoSearchIsAllowed(t *testing.T) {
	cfg := validDefaults()
	cfg.Search.Strategies = nil

	assert.NoError(t, cfg.Validate("pipeline"))
}

func TestValidatePipeline_Bounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Extract.Temperature = 1.5
	cfg.Pipeline.SearchPauseMs = -1
	cfg.Pipeline.CandidateTimeoutSecs = 0

	err := cfg.Validate("pipeline")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract.temperature")
	assert.Contains(t, err.Error(), "pipeline pauses must be >= 0")
	assert.Contains(t, err.Error(), "candidate_timeout_secs")
}

func TestValidatePlaces(t *testing.T) {
	cfg := validDefaults()
	cfg.Google.MaxResultCount = 10

	err := cfg.Validate("places")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google.key is required")

	cfg.Google.Key = "key"
	assert.NoError(t, cfg.Validate("places"))

	cfg.Google.MaxResultCount = 25
	assert.Error(t, cfg.Validate("places"))
}

func TestValidateCache(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("cache")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.driver must be sqlite or postgres")

	cfg.Cache.Driver = "sqlite"
	err = cfg.Validate("cache")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.dsn is required")

	cfg.Cache.DSN = "leads.db"
	assert.NoError(t, cfg.Validate("cache"))

	cfg.Cache.Driver = "redis"
	err = cfg.Validate("cache")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
