package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lead-engine",
	Short: "Find local businesses and their owners' contact emails",
	Long: `lead-engine looks up businesses for a search query, reads each website and
web search results about its owner, asks an LLM for the contact email and the
owner's name, and derives a likely personal address (firstname@domain).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = zap.L().Sync()
	},
}

// setup loads config.yaml and LEADS_* variables and installs the global logger.
func setup(*cobra.Command, []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.InitLogger(c.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg = c
	zap.L().Debug("config loaded",
		zap.Strings("scrape", cfg.Scrape.Strategies),
		zap.Strings("search", cfg.Search.Strategies),
		zap.Strings("extract", cfg.Extract.Tiers),
		zap.String("cache", cfg.Cache.Driver),
	)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
