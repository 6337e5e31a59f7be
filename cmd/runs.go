package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/naip-sync/internal/model"
	"github.com/sells-group/naip-sync/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect local sync run history",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sync runs",
	RunE:  runRunsList,
}

var runsListFlags struct {
	zip    string
	status string
	limit  int
}

func init() {
	runsListCmd.Flags().StringVar(&runsListFlags.zip, "zip", "", "filter by ZIP code")
	runsListCmd.Flags().StringVar(&runsListFlags.status, "status", "", "filter by status (running, completed, failed)")
	runsListCmd.Flags().IntVar(&runsListFlags.limit, "limit", 20, "maximum runs to show")
	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := store.NewSQLite(cfg.History.Path)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	runs, err := st.ListRuns(ctx, store.RunFilter{
		ZipCode: runsListFlags.zip,
		Status:  model.RunStatus(runsListFlags.status),
		Limit:   runsListFlags.limit,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tZIP\tSTATUS\tTILES\tOK\tFAILED\tCREATED")
	for _, run := range runs {
		tiles, ok, failed := "-", "-", "-"
		if run.Summary != nil {
			tiles = fmt.Sprint(run.Summary.TotalTiles)
			ok = fmt.Sprint(run.Summary.Successful)
			failed = fmt.Sprint(run.Summary.Failed)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.ZipCode, run.Status, tiles, ok, failed,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
