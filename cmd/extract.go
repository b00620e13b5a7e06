package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-engine/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the contact email and owner of a single business",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("pipeline"); err != nil {
			return err
		}
		website, _ := cmd.Flags().GetString("website")
		name, _ := cmd.Flags().GetString("name")
		locality, _ := cmd.Flags().GetString("locality")
		format, _ := cmd.Flags().GetString("format")

		ctx := cmd.Context()
		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()
		if env.Pipeline == nil {
			return eris.New("extract: no extraction tier is configured")
		}

		out, err := env.Pipeline.Process(ctx, pipeline.Input{Website: website, PlaceName: name, Locality: locality})
		if err != nil {
			return err
		}
		return writeOutcome(out, format)
	},
}

func writeOutcome(out *pipeline.Outcome, format string) error {
	switch format {
	case formatJSON, "":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case formatYAML:
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close() //nolint:errcheck
		return enc.Encode(map[string]any{
			"initial_email":  deref(out.InitialEmail),
			"owner_name":     deref(out.OwnerName),
			"verified_email": deref(out.VerifiedEmail),
			"status":         string(out.Status),
			"error":          out.Error,
		})
	default:
		return eris.Errorf("unknown output format %q", format)
	}
}

func init() {
	extractCmd.Flags().String("website", "", "business website URL (required)")
	extractCmd.Flags().String("name", "", "business name (required)")
	extractCmd.Flags().String("locality", "", "locality for the owner search (default from config)")
	extractCmd.Flags().String("format", formatJSON, "output format: json, yaml")
	_ = extractCmd.MarkFlagRequired("website")
	_ = extractCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(extractCmd)
}
