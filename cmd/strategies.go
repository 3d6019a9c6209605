package cmd

import (
	"github.com/fitz/triage/internal/priority"
	"github.com/fitz/triage/internal/report"
	"github.com/spf13/cobra"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List prioritization strategies and their weights",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}
		report.PrintStrategies(cmd.OutOrStdout(), priority.Strategies(), cfg.Strategy)
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}
