package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/scrutor/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// Skip config loading; version needs no configuration.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Scrutor version %s\n", common.GetVersion())
	},
}
