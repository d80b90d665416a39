package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/enquiry-cli/internal/monitoring"
)

var alertWatch bool

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Check pace and conversion thresholds and post alerts",
	Long: "Loads the source, saves a snapshot when a store is configured, and posts an alert to " +
		"monitoring.webhook_url for each breached threshold. Each alert is sent once per month.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		var clock func() time.Time
		if flagNow != "" {
			now, err := referenceTime(flagNow, a.loc)
			if err != nil {
				return err
			}
			clock = func() time.Time { return now }
		}

		checker := a.checker(cfg.Monitoring, clock)
		if alertWatch {
			checker.Run(ctx)
			return nil
		}

		res, err := checker.Check(ctx)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), flagFormat, res, func(w io.Writer) { formatCheck(w, res) })
	},
}

func formatCheck(w io.Writer, res *monitoring.Result) {
	if len(res.Alerts) == 0 {
		fmt.Fprintln(w, "No thresholds breached.")
		return
	}
	for _, a := range res.Alerts {
		fmt.Fprintf(w, "[%s] %s: %s\n", a.Severity, a.Type, a.Message)
	}
	fmt.Fprintf(w, "%d of %d alerts sent\n", res.Sent, len(res.Alerts))
}

func init() {
	alertCmd.Flags().BoolVar(&alertWatch, "watch", false, "keep checking every monitoring.check_interval_secs")
	rootCmd.AddCommand(alertCmd)
}
