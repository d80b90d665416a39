package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/store"
)

var metricsSave bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show this month's enquiry metrics",
	Long: "Counts enquiries for the current month, last month and the same month last year, " +
		"computes conversion rates and top sources, and compares the month so far against prorated baselines.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		now, err := referenceTime(flagNow, a.loc)
		if err != nil {
			return err
		}
		l, err := a.load(ctx)
		if err != nil {
			return err
		}
		if _, err := a.checkDates(l.Table); err != nil {
			return err
		}

		report := a.metricsReport(l, now)

		if metricsSave {
			if a.store == nil {
				return eris.New("metrics: --save needs a store driver")
			}
			rec := &store.SnapshotRecord{
				Source:    report.Source,
				Table:     report.Table,
				Reference: now,
				Snapshot:  report.Snapshot,
			}
			if err := a.store.SaveSnapshot(ctx, rec); err != nil {
				return eris.Wrap(err, "metrics: save snapshot")
			}
			report.SavedID = rec.ID
			zap.L().Info("saved snapshot", zap.String("id", rec.ID), zap.String("source", rec.Source))
		}

		return render(cmd.OutOrStdout(), flagFormat, report, func(w io.Writer) { formatMetrics(w, report) })
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsSave, "save", false, "save the snapshot to the history store")
	rootCmd.AddCommand(metricsCmd)
}
