package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/competitor-insights/internal/store"
)

var (
	reportsLimit  int
	reportsOffset int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List stored comparison reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reports, err := st.ListReports(ctx, store.ReportFilter{
			Limit:  reportsLimit,
			Offset: reportsOffset,
		})
		if err != nil {
			return eris.Wrap(err, "list reports")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	},
}

var reportGetCmd = &cobra.Command{
	Use:   "report <report-id>",
	Short: "Show a stored comparison report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get report")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 20, "max reports to list")
	reportsCmd.Flags().IntVar(&reportsOffset, "offset", 0, "number of reports to skip")
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(reportGetCmd)
}
