package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulseboard/internal/config"
	"pulseboard/internal/tui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	snapshots := openSnapshots()
	if snapshots != nil {
		defer snapshots.Close()
	}

	pl, err := buildPipeline(cfg, snapshots)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	return tui.Run(pl, flagRefresh)
}
