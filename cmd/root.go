package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enquiry-cli/internal/config"
)

var cfg *config.Config

// Persistent flags shared by every command.
var (
	flagSource    string
	flagFile      string
	flagDateField string
	flagNow       string
	flagFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "enquiry-cli",
	Short: "Month-over-month enquiry metrics",
	Long: "Loads enquiry records from Notion, Salesforce or a file export and reports monthly counts, " +
		"conversion rates, top sources and prorated comparisons.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(c *config.Config) {
	if flagFile != "" {
		c.File.Location = flagFile
		c.Source.Kind = config.SourceFile
	}
	if flagSource != "" {
		c.Source.Kind = flagSource
	}
	if flagDateField != "" {
		c.DateField = flagDateField
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSource, "source", "", "record source: notion, salesforce or file (default from config)")
	pf.StringVar(&flagFile, "file", "", "export location (path, file://, http(s):// or ftp://); implies --source file")
	pf.StringVar(&flagDateField, "date-field", "", "field to bucket enquiries by (default auto-detect)")
	pf.StringVar(&flagNow, "now", "", "reference time, RFC3339 or YYYY-MM-DD (default current time)")
	pf.StringVar(&flagFormat, "format", formatTable, "output format: table, json or yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
