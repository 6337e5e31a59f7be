package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/naip-sync/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "naip-sync",
	Short: "Cost-aware NAIP imagery replication",
	Long:  "Resolves a ZIP code to NAIP quarter-quad tiles in the requester-pays naip-analytic bucket and replicates them into a destination bucket, skipping tiles already present.",
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
