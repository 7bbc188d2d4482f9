package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pulseboard/internal/config"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <dataset>",
	Short: "Fetch one dataset and print it",
	Long: `Run a single aggregation pass for a dataset and print the ranked
records with their provenance. Useful for scripting and for checking
sources without launching the dashboard.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		res, err := pl.Fetch(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d record(s), provenance=%s, fetched=%s\n\n",
			args[0], len(res.Records), res.Provenance,
			res.FetchedAt.Format(time.RFC3339))

		for _, r := range res.Records {
			meta := r.Category
			if r.Region != "" {
				meta += ", " + r.Region
			}
			if len(r.Topics) > 0 {
				meta += ", " + strings.Join(r.Topics, "/")
			}
			fmt.Printf("%12.0f  %-60s  [%s]\n", r.Volume, truncateCell(r.Title, 60), meta)
		}
		return nil
	},
}

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List configured datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		for _, d := range cfg.Datasets {
			fmt.Printf("%-12s ttl=%-6s sources=%d\n",
				d.Key, d.TTLDuration(), len(d.EnabledSources()))
		}
		return nil
	},
}

func truncateCell(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
