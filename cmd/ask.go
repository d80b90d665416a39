package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/enquiry-cli/internal/assistant"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the enquiries",
	Long: "Answers questions such as \"how many enquiries this month?\", \"what's our conversion rate?\" " +
		"or \"where do enquiries come from?\". Ask \"help\" for the full list.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		resp := assistant.New(a.engine).Ask(l.Table, now, strings.Join(args, " "))
		return render(cmd.OutOrStdout(), flagFormat, resp, func(w io.Writer) { fmt.Fprintln(w, resp.Answer) })
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
