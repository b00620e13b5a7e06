package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-engine/internal/model"
	"github.com/sells-group/lead-engine/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find leads for a query and extract their contacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateAll("places", "pipeline"); err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()
		if env.Runner == nil {
			return eris.New("search: places lookup or extraction is not configured")
		}

		leads, summary, runErr := collectRun(ctx, env.Runner, args[0])
		if summary != nil {
			fmt.Fprintf(os.Stderr, "%d leads: %d verified, %d general, %d failed (%s)\n",
				summary.Total, summary.Verified, summary.General, summary.Failed, summary.Duration.Round(time.Millisecond))
		}

		if len(leads) > 0 {
			if err := writeLeads(os.Stdout, leads, format); err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := writeLeadsXLSX(xlsxPath, leads); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Wrote %s\n", xlsxPath)
			}
		} else if runErr == nil {
			fmt.Fprintln(os.Stderr, "No businesses with a website found.")
		}
		return runErr
	},
}

type leadRunner interface {
	Run(ctx context.Context, query string, emit func(model.Lead)) (*pipeline.RunSummary, error)
}

// collectRun runs query and returns the latest state of every lead, in the
// order the leads were first emitted.
func collectRun(ctx context.Context, r leadRunner, query string) ([]model.Lead, *pipeline.RunSummary, error) {
	var order []string
	latest := make(map[string]model.Lead)
	summary, err := r.Run(ctx, query, func(l model.Lead) {
		if _, seen := latest[l.ID]; !seen {
			order = append(order, l.ID)
		}
		latest[l.ID] = l
		if l.Status.IsTerminal() {
			zap.L().Info("lead done",
				zap.String("name", l.Name),
				zap.String("status", string(l.Status)),
			)
		}
	})

	leads := make([]model.Lead, 0, len(order))
	for _, id := range order {
		leads = append(leads, latest[id])
	}
	return leads, summary, err
}

// validateAll validates cfg for each mode in turn.
func validateAll(modes ...string) error {
	for _, m := range modes {
		if err := cfg.Validate(m); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	searchCmd.Flags().String("format", formatTable, "output format: table, json, yaml, csv")
	searchCmd.Flags().String("xlsx", "", "also write the leads to this .xlsx file")
	rootCmd.AddCommand(searchCmd)
}
