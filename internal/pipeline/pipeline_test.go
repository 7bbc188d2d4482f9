package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"pulseboard/internal/cache"
	"pulseboard/internal/source"
)

type fakeSource struct {
	name    string
	records []cache.Record
	err     error
	panics  bool
	calls   atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]cache.Record, error) {
	f.calls.Add(1)
	if f.panics {
		panic("adapter bug")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func rec(id, title string, volume float64) cache.Record {
	return cache.Record{ID: id, Source: "fake", Title: title, Volume: volume}
}

func newTestPipeline(datasets ...Dataset) *Pipeline {
	return New(Options{Datasets: datasets, CallTimeout: time.Second})
}

func TestFetchUnknownDataset(t *testing.T) {
	p := newTestPipeline()
	_, err := p.Fetch(context.Background(), "bogus")
	if !errors.Is(err, ErrUnknownDataset) {
		t.Fatalf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestFetchFreshSortsAndCaps(t *testing.T) {
	src := &fakeSource{name: "s", records: []cache.Record{
		rec("a", "Fed rate decision", 10),
		rec("b", "Election night odds", 300),
		rec("c", "Ceasefire by June?", 200),
	}}
	p := newTestPipeline(Dataset{
		Key: "markets", TTL: time.Minute, Limit: 2,
		Sources: []source.Source{src},
	})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Provenance != cache.ProvenanceFresh {
		t.Errorf("provenance = %s", res.Provenance)
	}
	if len(res.Records) != 2 {
		t.Fatalf("cap not applied: %d records", len(res.Records))
	}
	if res.Records[0].ID != "b" || res.Records[1].ID != "c" {
		t.Errorf("wrong order: %s, %s", res.Records[0].ID, res.Records[1].ID)
	}
}

func TestFetchServesFreshCache(t *testing.T) {
	src := &fakeSource{name: "s", records: []cache.Record{rec("a", "Election odds", 1)}}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{src}})

	if _, err := p.Fetch(context.Background(), "markets"); err != nil {
		t.Fatal(err)
	}
	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if res.Provenance != cache.ProvenanceCached {
		t.Errorf("provenance = %s, want cached", res.Provenance)
	}
	if src.calls.Load() != 1 {
		t.Errorf("source called %d times, want 1", src.calls.Load())
	}
}

func TestDeduplicationFirstSourceWins(t *testing.T) {
	first := &fakeSource{name: "first", records: []cache.Record{
		{ID: "dup", Source: "first", Title: "Election odds", Volume: 100},
		rec("a", "Ceasefire market", 50),
	}}
	second := &fakeSource{name: "second", records: []cache.Record{
		{ID: "dup", Source: "second", Title: "Election odds copy", Volume: 999},
		rec("b", "Fed meeting", 25),
	}}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{first, second}})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	count := 0
	for _, r := range res.Records {
		if r.ID == "dup" {
			count++
			if r.Source != "first" {
				t.Errorf("duplicate resolved to %q, want first source's copy", r.Source)
			}
		}
	}
	if count != 1 {
		t.Errorf("dup appeared %d times", count)
	}
}

func TestPartialFailureReturnsUnion(t *testing.T) {
	good := &fakeSource{name: "good", records: []cache.Record{rec("a", "Election odds", 1)}}
	bad := &fakeSource{name: "bad", err: errors.New("connection refused")}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{good, bad}})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if res.Provenance != cache.ProvenanceFresh {
		t.Errorf("provenance = %s, want fresh", res.Provenance)
	}
	if len(res.Records) != 1 || res.Records[0].ID != "a" {
		t.Errorf("expected the surviving source's records, got %+v", res.Records)
	}
}

func TestPanickingSourceCountsAsFailure(t *testing.T) {
	good := &fakeSource{name: "good", records: []cache.Record{rec("a", "Election odds", 1)}}
	angry := &fakeSource{name: "angry", panics: true}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{good, angry}})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 1 {
		t.Errorf("expected records from the healthy source, got %d", len(res.Records))
	}
}

func TestTotalFailureWithCacheFallsBackStale(t *testing.T) {
	src := &fakeSource{name: "s", records: []cache.Record{rec("a", "Election odds", 1)}}
	// Zero TTL: the first result is stale on the very next read.
	p := newTestPipeline(Dataset{Key: "markets", TTL: 0, Sources: []source.Source{src}})

	if _, err := p.Fetch(context.Background(), "markets"); err != nil {
		t.Fatal(err)
	}
	src.err = errors.New("upstream down")
	time.Sleep(time.Millisecond)

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if res.Provenance != cache.ProvenanceStale {
		t.Errorf("provenance = %s, want stale-fallback", res.Provenance)
	}
	if len(res.Records) != 1 || res.Records[0].ID != "a" {
		t.Errorf("stale fallback lost the cached records: %+v", res.Records)
	}
}

func TestTotalFailureWithoutCacheReturnsEmpty(t *testing.T) {
	src := &fakeSource{name: "s", err: errors.New("down")}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{src}})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatalf("total failure must not surface an error: %v", err)
	}
	if res.Provenance != cache.ProvenanceEmpty {
		t.Errorf("provenance = %s, want empty-fallback", res.Provenance)
	}
	if res.Records == nil || len(res.Records) != 0 {
		t.Errorf("expected an empty (non-nil) record slice, got %+v", res.Records)
	}
}

func TestClassificationEndToEnd(t *testing.T) {
	src := &fakeSource{name: "s", records: []cache.Record{
		rec("a", "Ukraine war escalates", 100),
		rec("b", "Microsoft software update", 50),
		rec("c", "Who wins the Super Bowl?", 999),
	}}
	p := newTestPipeline(Dataset{Key: "markets", TTL: time.Minute, Sources: []source.Source{src}})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("exclusion should drop the sports record: %+v", res.Records)
	}
	if res.Records[0].ID != "a" || res.Records[1].ID != "b" {
		t.Fatalf("wrong order: %s, %s", res.Records[0].ID, res.Records[1].ID)
	}

	a, b := res.Records[0], res.Records[1]
	if a.Category != "geopolitics" {
		t.Errorf("a.Category = %q, want geopolitics", a.Category)
	}
	foundConflict := false
	for _, topic := range a.Topics {
		if topic == "CONFLICT" {
			foundConflict = true
		}
	}
	if !foundConflict {
		t.Errorf("a.Topics = %v, want CONFLICT present", a.Topics)
	}
	if a.Region != "Ukraine/Russia" {
		t.Errorf("a.Region = %q", a.Region)
	}

	if b.Category != "tech" {
		t.Errorf("b.Category = %q, want tech", b.Category)
	}
	for _, topic := range b.Topics {
		if topic == "CONFLICT" {
			t.Error("b must not be labeled CONFLICT via 'software'")
		}
	}
}

func TestSnapshotSeedServesStaleFallback(t *testing.T) {
	snaps, err := cache.OpenSnapshots(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer snaps.Close()

	seeded := []cache.Record{rec("old", "Election odds", 42)}
	if err := snaps.Save("markets", seeded, time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{name: "s", err: errors.New("still down")}
	p := New(Options{
		Datasets:  []Dataset{{Key: "markets", TTL: time.Minute, Sources: []source.Source{src}}},
		Snapshots: snaps,
	})

	res, err := p.Fetch(context.Background(), "markets")
	if err != nil {
		t.Fatal(err)
	}
	if res.Provenance != cache.ProvenanceStale {
		t.Errorf("provenance = %s, want stale-fallback from snapshot seed", res.Provenance)
	}
	if len(res.Records) != 1 || res.Records[0].ID != "old" {
		t.Errorf("expected seeded records, got %+v", res.Records)
	}
}

func TestFreshFetchPersistsSnapshot(t *testing.T) {
	snaps, err := cache.OpenSnapshots(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer snaps.Close()

	src := &fakeSource{name: "s", records: []cache.Record{rec("a", "Election odds", 1)}}
	p := New(Options{
		Datasets:  []Dataset{{Key: "markets", TTL: time.Minute, Sources: []source.Source{src}}},
		Snapshots: snaps,
	})

	if _, err := p.Fetch(context.Background(), "markets"); err != nil {
		t.Fatal(err)
	}

	records, _, ok := snaps.Load("markets")
	if !ok {
		t.Fatal("expected a snapshot after a fresh fetch")
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("snapshot mismatch: %+v", records)
	}
}

func TestKeysPreserveConfigOrder(t *testing.T) {
	p := newTestPipeline(
		Dataset{Key: "markets"},
		Dataset{Key: "news"},
		Dataset{Key: "whales"},
	)
	keys := p.Keys()
	want := []string{"markets", "news", "whales"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys", len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}
