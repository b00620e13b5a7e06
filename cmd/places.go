package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-engine/internal/model"
)

var placesCmd = &cobra.Command{
	Use:   "places <query>",
	Short: "List the businesses with a website matching a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("places"); err != nil {
			return err
		}
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()
		if env.Places == nil {
			return eris.New("places: google.key is not configured")
		}

		found, err := env.Places.Search(ctx, args[0])
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(os.Stderr, "No businesses with a website found.")
			return nil
		}
		formatBusinesses(os.Stdout, found)
		return nil
	},
}

func formatBusinesses(w io.Writer, businesses []model.Business) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tName\tWebsite\tAddress")
	for _, b := range businesses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.WebsiteURL, b.Address)
	}
	_ = tw.Flush()
}

func init() {
	rootCmd.AddCommand(placesCmd)
}
