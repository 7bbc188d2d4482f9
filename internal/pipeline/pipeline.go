// Package pipeline turns a dataset key into an aggregation result:
// cache check, concurrent source fan-out, dedupe, classification,
// ranking, and cache write-back. Data-sourcing failures never escape;
// they surface only as result provenance.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"pulseboard/internal/cache"
	"pulseboard/internal/classify"
	"pulseboard/internal/source"
)

// ErrUnknownDataset is the only error Fetch returns: asking for a key
// that was never configured is a programming mistake, not a data
// failure.
var ErrUnknownDataset = errors.New("unknown dataset")

const defaultLimit = 75

// Dataset binds a cache key to its upstream sources and policy.
type Dataset struct {
	Key     string
	TTL     time.Duration
	Limit   int
	Sources []source.Source
}

// Options configures a Pipeline. Snapshots and Logger may be nil.
type Options struct {
	Datasets     []Dataset
	Snapshots    *cache.Snapshots
	Logger       *zap.Logger
	CallTimeout  time.Duration
	RequestDelay time.Duration
}

type Pipeline struct {
	datasets     map[string]Dataset
	order        []string
	store        *cache.Store[cache.AggregationResult]
	snapshots    *cache.Snapshots
	logger       *zap.Logger
	callTimeout  time.Duration
	requestDelay time.Duration
	group        singleflight.Group
}

func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}

	p := &Pipeline{
		datasets:     make(map[string]Dataset, len(opts.Datasets)),
		store:        cache.NewStore[cache.AggregationResult](0),
		snapshots:    opts.Snapshots,
		logger:       logger,
		callTimeout:  callTimeout,
		requestDelay: opts.RequestDelay,
	}
	for _, d := range opts.Datasets {
		p.datasets[d.Key] = d
		p.order = append(p.order, d.Key)
	}
	p.seedFromSnapshots()
	return p
}

// seedFromSnapshots loads the last persisted result per dataset into
// the store with a zero TTL, so it reads back as stale: good enough
// for a fallback panel, never mistaken for fresh data.
func (p *Pipeline) seedFromSnapshots() {
	if p.snapshots == nil {
		return
	}
	for _, key := range p.order {
		records, fetchedAt, ok := p.snapshots.Load(key)
		if !ok {
			continue
		}
		p.store.Set(key, cache.AggregationResult{
			Records:    records,
			Provenance: cache.ProvenanceStale,
			FetchedAt:  fetchedAt,
		}, 0)
		p.logger.Debug("seeded dataset from snapshot",
			zap.String("dataset", key), zap.Int("records", len(records)))
	}
}

// Keys returns the dataset keys in configuration order.
func (p *Pipeline) Keys() []string {
	return p.order
}

// Fetch produces the aggregation result for a dataset. A fresh cache
// entry short-circuits; otherwise the sources are fetched, and on
// total failure the last cached value (or an empty result) is served.
// Concurrent fetches of the same key are coalesced.
func (p *Pipeline) Fetch(ctx context.Context, key string) (cache.AggregationResult, error) {
	ds, ok := p.datasets[key]
	if !ok {
		return cache.AggregationResult{}, fmt.Errorf("%w: %q", ErrUnknownDataset, key)
	}

	if hit, ok := p.store.Get(key); ok && !hit.Stale {
		res := hit.Data
		res.Provenance = cache.ProvenanceCached
		return res, nil
	}

	v, _, _ := p.group.Do(key, func() (interface{}, error) {
		return p.aggregate(ctx, ds), nil
	})
	return v.(cache.AggregationResult), nil
}

type settled struct {
	records []cache.Record
	err     error
}

func (p *Pipeline) aggregate(ctx context.Context, ds Dataset) (res cache.AggregationResult) {
	// A bug in merge or classification must degrade to the fallback,
	// not take down the caller.
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("aggregation panicked",
				zap.String("dataset", ds.Key), zap.Any("panic", r))
			res = p.fallback(ds.Key)
		}
	}()

	outcomes := p.fanOut(ctx, ds.Sources)

	seen := make(map[string]bool)
	var merged []cache.Record
	failures := 0
	for i, o := range outcomes {
		if o.err != nil {
			failures++
			p.logger.Warn("source failed",
				zap.String("dataset", ds.Key),
				zap.String("source", ds.Sources[i].Name()),
				zap.Error(o.err))
			continue
		}
		// First occurrence wins; source order is fixed by config.
		for _, r := range o.records {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}

	if len(ds.Sources) == 0 || failures == len(ds.Sources) {
		return p.fallback(ds.Key)
	}

	kept := make([]cache.Record, 0, len(merged))
	for _, r := range merged {
		if classify.ShouldExclude(r.Title) {
			continue
		}
		r.Category = string(classify.CategorizeMarket(r.Title))
		for _, topic := range classify.DetectTopics(r.Title) {
			r.Topics = append(r.Topics, string(topic))
		}
		if region, ok := classify.DetectRegion(r.Title); ok {
			r.Region = string(region)
		}
		kept = append(kept, r)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Volume != kept[j].Volume {
			return kept[i].Volume > kept[j].Volume
		}
		if !kept[i].Published.Equal(kept[j].Published) {
			return kept[i].Published.After(kept[j].Published)
		}
		return kept[i].ID < kept[j].ID
	})

	limit := ds.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(kept) > limit {
		kept = kept[:limit]
	}

	res = cache.AggregationResult{
		Records:    kept,
		Provenance: cache.ProvenanceFresh,
		FetchedAt:  time.Now(),
	}
	p.store.Set(ds.Key, res, ds.TTL)

	if p.snapshots != nil {
		if err := p.snapshots.Save(ds.Key, kept, res.FetchedAt); err != nil {
			p.logger.Warn("snapshot save failed",
				zap.String("dataset", ds.Key), zap.Error(err))
		}
	}

	p.logger.Info("dataset refreshed",
		zap.String("dataset", ds.Key),
		zap.Int("records", len(kept)),
		zap.Int("failed_sources", failures))
	return res
}

// fanOut launches every source call concurrently and waits for all of
// them to settle. No call is cancelled because a sibling failed; each
// call carries its own timeout so one hung source cannot block the
// rest indefinitely.
func (p *Pipeline) fanOut(ctx context.Context, sources []source.Source) []settled {
	out := make([]settled, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i] = settled{err: fmt.Errorf("source %s panicked: %v", src.Name(), r)}
				}
			}()

			// Stagger launches as a courtesy to rate-limited APIs.
			if delay := time.Duration(i) * p.requestDelay; delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					out[i] = settled{err: ctx.Err()}
					return
				}
			}

			callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
			defer cancel()

			records, err := src.Fetch(callCtx)
			out[i] = settled{records: records, err: err}
		}(i, src)
	}

	wg.Wait()
	return out
}

// fallback serves the last cached value when every source failed, or
// an empty result when there is none. Never an error.
func (p *Pipeline) fallback(key string) cache.AggregationResult {
	if hit, ok := p.store.Get(key); ok {
		res := hit.Data
		res.Provenance = cache.ProvenanceStale
		return res
	}
	return cache.AggregationResult{
		Records:    []cache.Record{},
		Provenance: cache.ProvenanceEmpty,
		FetchedAt:  time.Now(),
	}
}
