package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pulseboard/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagVerbose bool
	flagRefresh time.Duration
)

var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "pulseboard",
	Short: "Terminal dashboard for prediction markets, news, and whale flows",
	Long: `pulseboard aggregates prediction markets, world news headlines, and
large on-chain transfers into topical terminal panels. Feeds are cached
with per-dataset TTLs; when every upstream fails, panels fall back to
the last known data instead of erroring.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The TUI owns the terminal; keep the logger quiet there
		// unless --verbose is set.
		if cmd.Use == "pulseboard" && !flagVerbose {
			return nil
		}
		cfg := zap.NewProductionConfig()
		if flagVerbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	// Assigned here rather than in the literal to break an
	// initialization cycle (runTUI -> openSnapshots -> rootCmd).
	rootCmd.RunE = runTUI

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.Flags().DurationVar(&flagRefresh, "refresh", 0, "auto-refresh interval for the dashboard (0 disables)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulseboard %s (commit: %s, built: %s)\n", version, commit, date)
		if latest, ok := update.Check(context.Background(), version); ok {
			fmt.Printf("A newer version is available: %s\n", latest)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func parseSpan(s string) (time.Duration, error) {
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(s)
}
