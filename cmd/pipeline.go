package cmd

import (
	"fmt"

	"pulseboard/internal/cache"
	"pulseboard/internal/config"
	"pulseboard/internal/pipeline"
	"pulseboard/internal/proxy"
	"pulseboard/internal/source"
)

// buildPipeline is the composition root: it wires config, the two
// network paths, the source adapters, and the snapshot store into one
// pipeline. snapshots may be nil when the local db is unavailable.
func buildPipeline(cfg *config.Config, snapshots *cache.Snapshots) (*pipeline.Pipeline, error) {
	timeout := cfg.CallTimeoutDuration()

	clients := source.Clients{
		Direct: proxy.New(proxy.Config{Timeout: timeout}, logger),
		Proxied: proxy.New(proxy.Config{
			Primary:         cfg.Proxy.Primary,
			Secondary:       cfg.Proxy.Secondary,
			RejectionMarker: cfg.Proxy.RejectionMarker,
			Timeout:         timeout,
		}, logger),
	}

	var datasets []pipeline.Dataset
	for _, d := range cfg.Datasets {
		var sources []source.Source
		for _, sc := range d.EnabledSources() {
			s, err := source.FromConfig(sc, clients)
			if err != nil {
				return nil, fmt.Errorf("dataset %q: %w", d.Key, err)
			}
			sources = append(sources, s)
		}
		datasets = append(datasets, pipeline.Dataset{
			Key:     d.Key,
			TTL:     d.TTLDuration(),
			Limit:   d.Limit,
			Sources: sources,
		})
	}

	return pipeline.New(pipeline.Options{
		Datasets:     datasets,
		Snapshots:    snapshots,
		Logger:       logger,
		CallTimeout:  timeout,
		RequestDelay: cfg.RequestDelayDuration(),
	}), nil
}

// openSnapshots opens the snapshot db, degrading to nil (no warm
// start, no persistence) if it cannot be opened.
func openSnapshots() *cache.Snapshots {
	snaps, err := cache.OpenSnapshots(config.SnapshotPath())
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "warning: snapshots unavailable: %v\n", err)
		return nil
	}
	return snaps
}
