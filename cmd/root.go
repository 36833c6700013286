package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karthik2sekhar/CompiSure-Agents/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "compisure",
	Short: "Insurance commission reconciliation engine",
	Long:  "Normalizes carrier commission statements, matches them against the enrollment book, classifies payment variances, and learns each carrier's statement format over time.",
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
