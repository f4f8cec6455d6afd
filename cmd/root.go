package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-coach/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "radar-coach",
	Short: "Conversational Tech Radar blip submission coach",
	Long:  "Coaches contributors through Tech Radar blip submissions: extracts structured fields from conversation, scores completeness and evidence quality, and checks names against past radar editions.",
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
