package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civicdata/inspection-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "inspection-cli",
	Short: "Food inspection ETL pipeline",
	Long:  "Downloads the health department's inspection PDF, extracts and cleans its table rows, accumulates history, and joins it with violation-code descriptions into a published CSV dataset.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
