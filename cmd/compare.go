package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/competitor-insights/internal/insights"
	"github.com/sells-group/competitor-insights/internal/model"
)

var (
	compareStyle  string
	compareNoSave bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <business>",
	Short: "Run a competitor comparison for a single business",
	Long:  "Pass a business name or website URL. Produces a comparison report with metrics and AI improvement suggestions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := initService()
		if err != nil {
			return err
		}

		style := compareStyle
		if style == "" {
			style = cfg.Comparison.DefaultStyle
		}

		report, err := svc.CreateComparison(ctx, insights.ComparisonRequest{
			Identifier:     args[0],
			Style:          model.ReportStyle(style),
			MaxCompetitors: cfg.Comparison.MaxCompetitors,
		})
		if err != nil {
			return eris.Wrap(err, "create comparison")
		}

		if !compareNoSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.SaveReport(ctx, report); err != nil {
				return eris.Wrap(err, "save report")
			}
			zap.L().Info("report saved", zap.String("report_id", report.ReportID))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareStyle, "style", "", "report style: casual or data-driven (default from config)")
	compareCmd.Flags().BoolVar(&compareNoSave, "no-save", false, "skip persisting the report")
	rootCmd.AddCommand(compareCmd)
}
