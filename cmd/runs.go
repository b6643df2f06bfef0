package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/landrank/internal/export"
	"github.com/sells-group/landrank/internal/model"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved scoring runs",
	Long:  "Commands for listing and viewing runs recorded with score --save.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent scoring runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := st.ListRuns(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run with its top parcels",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}
		formatRun(cmd.OutOrStdout(), run)
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "max number of runs to display")
	runsShowCmd.Flags().Bool("json", false, "print the run as JSON")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tPARCELS\tENERGY_GWH\tAVAILABLE_ONLY\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-------\t----------\t--------------\t-------")

	for _, r := range runs {
		source := r.Source
		if len(source) > 40 {
			source = "..." + source[len(source)-37:]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%t\t%s\n",
			truncateID(r.ID),
			source,
			r.ParcelCount,
			r.Summary.TotalEnergyGWh,
			r.OnlyAvailable,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatRun writes a run header, its weights and its top parcels to w.
func formatRun(out io.Writer, r *model.Run) {
	_, _ = fmt.Fprintf(out, "Run %s\n", r.ID)
	_, _ = fmt.Fprintf(out, "Source:   %s\n", r.Source)
	_, _ = fmt.Fprintf(out, "Created:  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(out, "Hash:     %s\n", truncateID(r.ContentHash))
	if r.DroppedInvalidDates > 0 {
		_, _ = fmt.Fprintf(out, "Dropped:  %d rows with invalid AvailableFrom\n", r.DroppedInvalidDates)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "\nCOMPONENT\tWEIGHT\tNORMALIZED")
	for _, name := range []string{"Social", "Technical", "Economic", "Fairness"} {
		_, _ = fmt.Fprintf(w, "%s\t%.2f\t%.3f\n", name, r.Weights[name], r.NormalizedWeights[name])
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	table := export.Table{Columns: []string{"ID", "Zone", "Score", "Energy_kWh", "Households", "CO2_tons"}}
	for _, p := range r.Top {
		table.Rows = append(table.Rows, []string{
			p.ID,
			p.Zone,
			strconv.FormatFloat(p.Score, 'f', 2, 64),
			strconv.FormatFloat(p.EnergyKWh, 'f', 1, 64),
			strconv.FormatFloat(p.Households, 'f', 2, 64),
			strconv.FormatFloat(p.CO2Tons, 'f', 2, 64),
		})
	}
	_ = export.WriteTable(out, table)

	_, _ = fmt.Fprintln(out)
	for _, line := range export.SummaryLines(r.Summary) {
		_, _ = fmt.Fprintln(out, line)
	}
}

// truncateID returns the first 8 characters of an ID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
