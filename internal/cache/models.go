package cache

import "time"

// Record is one classified content item from an upstream source.
// ID is the deduplication key within a single aggregation pass.
type Record struct {
	ID          string
	Source      string
	Title       string
	URL         string
	Volume      float64
	Probability float64
	Category    string
	Topics      []string
	Region      string
	Published   time.Time
	FetchedAt   time.Time
}

// Provenance tells a panel where its data came from.
type Provenance string

const (
	// ProvenanceFresh means the records were fetched live in this pass.
	ProvenanceFresh Provenance = "fresh"
	// ProvenanceCached means a non-stale cache entry was served.
	ProvenanceCached Provenance = "cached"
	// ProvenanceStale means every source failed and a stale cache
	// entry was served as a degraded fallback.
	ProvenanceStale Provenance = "stale-fallback"
	// ProvenanceEmpty means every source failed and nothing was cached.
	ProvenanceEmpty Provenance = "empty-fallback"
)

// AggregationResult is the ordered, deduplicated, capped output of one
// aggregation pass for a dataset.
type AggregationResult struct {
	Records    []Record
	Provenance Provenance
	FetchedAt  time.Time
}
