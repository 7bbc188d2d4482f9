package tui

import "pulseboard/internal/cache"

type datasetLoadedMsg struct {
	key    string
	result cache.AggregationResult
}

type datasetErrMsg struct {
	key string
	err error
}

// refreshTickMsg fires when the auto-refresh interval elapses.
type refreshTickMsg struct{}
