package main

import (
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/enquiry-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved snapshots and sent alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Store.Driver == "" {
			return eris.New("history: no store driver configured")
		}
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")
		w := cmd.OutOrStdout()

		if alerts, _ := cmd.Flags().GetBool("alerts"); alerts {
			recs, err := st.ListAlerts(ctx, name, limit)
			if err != nil {
				return eris.Wrap(err, "history: list alerts")
			}
			return render(w, flagFormat, recs, func(w io.Writer) { formatAlerts(w, recs) })
		}

		filter := store.SnapshotFilter{Source: name, Limit: limit}
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			filter.Since = time.Now().Add(-since)
		}
		recs, err := st.ListSnapshots(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history: list snapshots")
		}
		return render(w, flagFormat, recs, func(w io.Writer) { formatHistory(w, recs) })
	},
}

func init() {
	historyCmd.Flags().String("name", "", "only entries for this source name (e.g. notion:<id>, salesforce:Lead or a file location)")
	historyCmd.Flags().Int("limit", 20, "max number of entries to display")
	historyCmd.Flags().Duration("since", 0, "only snapshots saved within this window (e.g. 720h)")
	historyCmd.Flags().Bool("alerts", false, "list sent alerts instead of snapshots")
	rootCmd.AddCommand(historyCmd)
}
