package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/competitor-insights/internal/insights"
	"github.com/sells-group/competitor-insights/internal/model"
)

var (
	batchFile        string
	batchStyle       string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run comparisons for a list of businesses",
	Long:  "Reads one business name or URL per line from a file (or stdin with -) and runs comparisons concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		identifiers, err := readIdentifiers(batchFile)
		if err != nil {
			return err
		}
		if len(identifiers) == 0 {
			zap.L().Info("no businesses to process")
			return nil
		}

		svc, err := initService()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		style := batchStyle
		if style == "" {
			style = cfg.Comparison.DefaultStyle
		}

		zap.L().Info("processing batch",
			zap.Int("businesses", len(identifiers)),
			zap.Int("concurrency", batchConcurrency),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)

		var succeeded, failed atomic.Int64

		for _, identifier := range identifiers {
			g.Go(func() error {
				log := zap.L().With(zap.String("business", identifier))

				report, err := svc.CreateComparison(gctx, insights.ComparisonRequest{
					Identifier:     identifier,
					Style:          model.ReportStyle(style),
					MaxCompetitors: cfg.Comparison.MaxCompetitors,
				})
				if err != nil {
					failed.Add(1)
					log.Error("comparison failed", zap.Error(err))
					return nil // don't abort batch on individual failure
				}

				if err := st.SaveReport(gctx, report); err != nil {
					failed.Add(1)
					log.Error("save report failed", zap.Error(err))
					return nil
				}

				succeeded.Add(1)
				log.Info("comparison complete",
					zap.String("report_id", report.ReportID),
					zap.Int("competitors", report.CompetitorCount()),
				)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch processing")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "-", "file with one business per line, or - for stdin")
	batchCmd.Flags().StringVar(&batchStyle, "style", "", "report style: casual or data-driven (default from config)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "max concurrent comparisons")
	rootCmd.AddCommand(batchCmd)
}

func readIdentifiers(path string) ([]string, error) {
	var r *os.File
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "open %s", path)
		}
		defer f.Close()
		r = f
	}

	var identifiers []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		identifiers = append(identifiers, line)
	}
	return identifiers, eris.Wrap(scanner.Err(), "read businesses")
}
