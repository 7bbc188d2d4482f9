package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestStoreGetMissing(t *testing.T) {
	s := NewStore[string](0)
	if _, ok := s.Get("nope"); ok {
		t.Error("expected miss for never-set key")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore[string](0)
	s.Set("k", "value", time.Minute)

	hit, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit after set")
	}
	if hit.Data != "value" {
		t.Errorf("got %q, want %q", hit.Data, "value")
	}
	if hit.Stale {
		t.Error("entry should be fresh immediately after set")
	}
}

func TestStoreStalenessKeepsValue(t *testing.T) {
	s := NewStore[int](0)
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Set("k", 42, time.Minute)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	hit, ok := s.Get("k")
	if !ok {
		t.Fatal("stale entry must not be evicted")
	}
	if !hit.Stale {
		t.Error("entry past its TTL should be stale")
	}
	if hit.Data != 42 {
		t.Errorf("stale entry lost its value: got %d", hit.Data)
	}
}

func TestStoreOverwriteResetsStaleness(t *testing.T) {
	s := NewStore[int](0)
	base := time.Now()
	s.now = func() time.Time { return base }
	s.Set("k", 1, time.Minute)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	s.Set("k", 2, time.Minute)

	hit, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Stale {
		t.Error("overwrite should reset stored-at")
	}
	if hit.Data != 2 {
		t.Errorf("got %d, want 2", hit.Data)
	}
	if s.Len() != 1 {
		t.Errorf("overwrite must not duplicate the entry, len = %d", s.Len())
	}
}

func TestStoreLRUEviction(t *testing.T) {
	s := NewStore[int](2)
	s.Set("a", 1, time.Minute)
	s.Set("b", 2, time.Minute)

	// Touch "a" so "b" becomes least recently used.
	if _, ok := s.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	s.Set("c", 3, time.Minute)

	if _, ok := s.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if _, ok := s.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := NewStore[int](0)
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				s.Set(key, n, time.Minute)
				s.Get(key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if s.Len() != 10 {
		t.Errorf("expected 10 distinct keys, got %d", s.Len())
	}
}
