package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/services/report"
	badgerstorage "github.com/ternarybob/scrutor/internal/storage/badger"
)

var reportCmd = &cobra.Command{
	Use:   "report [url]",
	Short: "Re-render reports for an archived analysis",
	Long:  `Loads the most recent archived analysis for the URL and writes the reports again in the configured formats.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	url := args[0]

	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to open result archive: %w", err)
	}
	defer db.Close()
	store := badgerstorage.NewResultStore(db, logger)

	ctx := context.Background()
	analysis, err := store.GetAnalysisByURL(ctx, url)
	if err != nil {
		return fmt.Errorf("no archived analysis: %w", err)
	}
	content, err := store.GetContent(ctx, url)
	if err != nil {
		logger.Warn().Str("url", url).Err(err).Msg("No archived content; rendering from analysis only")
		content = nil
	}

	exporter, err := report.New(&config.Report, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize report exporter: %w", err)
	}

	paths, err := exporter.Export(ctx, analysis, content)
	if err != nil {
		return fmt.Errorf("failed to render reports: %w", err)
	}

	fmt.Printf("Reports written for %s:\n", url)
	for _, path := range paths {
		fmt.Printf("  %s\n", path)
	}
	return nil
}
