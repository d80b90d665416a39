package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/enquiry-cli/internal/metrics"
)

var trendMonths int

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show monthly enquiry counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, false)
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

		report := a.trendReport(l.Table, now, trendMonths)
		return render(cmd.OutOrStdout(), flagFormat, report, func(w io.Writer) { formatTrend(w, report) })
	},
}

func init() {
	trendCmd.Flags().IntVar(&trendMonths, "months", metrics.DefaultTrendMonths, "number of months, ending with the current one")
	rootCmd.AddCommand(trendCmd)
}
