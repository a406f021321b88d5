package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/app"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [url]",
	Short: "Analyze a single URL",
	Long:  `Extracts the rendered page at the given URL, runs the full marketing analysis, and writes the reports.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	url := args[0]

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	logger.Info().Str("url", url).Msg("Analyzing URL")

	analysis, err := application.AnalyzeURL(context.Background(), url)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	fmt.Printf("\nAnalysis complete: %s\n", url)
	fmt.Printf("  ID:              %s\n", analysis.ID)
	fmt.Printf("  Processing time: %s\n", analysis.ProcessingTime.Round(100*time.Millisecond))
	fmt.Printf("  Tokens used:     %d\n", analysis.TokensUsed)
	fmt.Printf("  Cost estimate:   $%.4f\n", analysis.TotalCost)
	return nil
}
