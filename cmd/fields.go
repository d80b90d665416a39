package main

import (
	"io"

	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "List the source's fields and the roles resolved for them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close() //nolint:errcheck

		l, err := a.load(ctx)
		if err != nil {
			return err
		}

		report := a.fieldsReport(l.Table)
		return render(cmd.OutOrStdout(), flagFormat, report, func(w io.Writer) { formatFields(w, report) })
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
