package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
)

var (
	configFiles []string

	// Global state shared by subcommands
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "scrutor",
	Short: "Landing page analysis pipeline",
	Long: `Scrutor extracts rendered page content from URLs and runs multi-facet
marketing analysis (persona, USP, benefits, copywriting) through an LLM,
producing markdown, JSON, and PDF reports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Startup sequence (REQUIRED ORDER):
		// 1. Load config (defaults -> files -> env)
		// 2. Initialize logger
		// 3. Print banner
		paths := configFiles
		if len(paths) == 0 {
			if _, err := os.Stat("scrutor.toml"); err == nil {
				paths = []string{"scrutor.toml"}
			} else if _, err := os.Stat("deployments/local/scrutor.toml"); err == nil {
				// Fallback for running from the project root
				paths = []string{"deployments/local/scrutor.toml"}
			}
		}

		var err error
		config, err = common.LoadFromFiles(paths...)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger = common.InitLogger(config)
		common.PrintBanner(common.GetVersion())

		logger.Debug().
			Str("data_dir", config.Queue.DataDir).
			Str("log_level", config.Logging.Level).
			Str("default_model", config.LLM.DefaultModel).
			Msg("Resolved configuration")

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&configFiles, "config", "c", nil,
		"Configuration file path (can be specified multiple times, later files override earlier ones)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	common.InstallCrashHandler("./logs")
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
