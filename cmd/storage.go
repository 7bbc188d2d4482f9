package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
)

var flagPruneOlderThan string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old dataset snapshots",
	Long: `Delete snapshots older than the retention period and reclaim disk
space. Uses the retention value from config (default: 7d) unless
overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		snapshots, err := cache.OpenSnapshots(config.SnapshotPath())
		if err != nil {
			return fmt.Errorf("opening snapshots: %w", err)
		}
		defer snapshots.Close()

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseSpan(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		deleted, err := snapshots.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		if deleted == 0 {
			fmt.Println("Nothing to prune.")
		} else {
			fmt.Printf("Pruned %d snapshot(s) older than %s.\n", deleted, retention)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show snapshot storage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := config.SnapshotPath()
		snapshots, err := cache.OpenSnapshots(dbPath)
		if err != nil {
			return fmt.Errorf("opening snapshots: %w", err)
		}
		defer snapshots.Close()

		count, size, err := snapshots.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		fmt.Printf("Snapshots: %s\n", dbPath)
		fmt.Printf("Datasets: %d\n", count)
		fmt.Printf("Size: %s\n", formatBytes(size))

		keys, err := snapshots.Datasets()
		if err == nil && len(keys) > 0 {
			fmt.Printf("Keys: %v\n", keys)
		}
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 3d, 72h)")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
