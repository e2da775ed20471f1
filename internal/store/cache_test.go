package store

import (
	"testing"
	"time"

	"github.com/HendryAvila/archkit/internal/artifact"
)

func newClockedCache(ttl time.Duration, max int) (*Cache, *time.Time) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(ttl, max)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	c, now := newClockedCache(30*time.Second, 10)
	c.Set(Filter{}, []*artifact.Artifact{{ID: "RFC-0001"}}, nil)

	*now = now.Add(29 * time.Second)
	if _, _, ok := c.Get(allKey); !ok {
		t.Error("entry should still be fresh at 29s")
	}

	*now = now.Add(2 * time.Second)
	if _, _, ok := c.Get(allKey); ok {
		t.Error("entry should have expired after 31s")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not removed, Len = %d", c.Len())
	}
}

func TestCache_KeepsSkippedPaths(t *testing.T) {
	c, _ := newClockedCache(time.Hour, 10)
	skipped := []string{"rfc/RFC-0009.md"}
	c.Set(Filter{}, nil, skipped)
	skipped[0] = "changed"

	_, got, ok := c.Get(allKey)
	if !ok {
		t.Fatal("entry missing")
	}
	if len(got) != 1 || got[0] != "rfc/RFC-0009.md" {
		t.Errorf("skipped = %v, want [rfc/RFC-0009.md]", got)
	}
}

func TestCache_EvictsOldestInsertion(t *testing.T) {
	c, now := newClockedCache(time.Hour, 2)

	c.Set(Filter{Owner: "a"}, nil, nil)
	*now = now.Add(time.Second)
	c.Set(Filter{Owner: "b"}, nil, nil)
	*now = now.Add(time.Second)
	c.Set(Filter{Owner: "c"}, nil, nil)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if _, _, ok := c.Get(Filter{Owner: "a"}.Key()); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, owner := range []string{"b", "c"} {
		if _, _, ok := c.Get(Filter{Owner: owner}.Key()); !ok {
			t.Errorf("entry %s missing", owner)
		}
	}
}

func TestCache_OverwriteDoesNotEvict(t *testing.T) {
	c, _ := newClockedCache(time.Hour, 2)
	c.Set(Filter{Owner: "a"}, nil, nil)
	c.Set(Filter{Owner: "b"}, nil, nil)
	c.Set(Filter{Owner: "b"}, []*artifact.Artifact{{ID: "RFC-0001"}}, nil)

	if _, _, ok := c.Get(Filter{Owner: "a"}.Key()); !ok {
		t.Error("overwriting an existing key must not evict another entry")
	}
}

func TestCache_InvalidateByType(t *testing.T) {
	c, _ := newClockedCache(time.Hour, 10)
	c.Set(Filter{}, nil, nil)
	c.Set(Filter{Type: artifact.TypeRFC}, nil, nil)
	c.Set(Filter{Type: artifact.TypeRFC, Owner: "alice"}, nil, nil)
	c.Set(Filter{Type: artifact.TypeADR}, nil, nil)
	c.Set(Filter{Tags: []string{"x"}}, nil, nil)

	c.InvalidateByType(artifact.TypeRFC)

	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1 (only the ADR entry)", c.Len())
	}
	if _, _, ok := c.Get(Filter{Type: artifact.TypeADR}.Key()); !ok {
		t.Error("ADR entry should survive RFC invalidation")
	}
}

func TestCache_ClearAndDefaults(t *testing.T) {
	c := NewCache(0, 0)
	if c.ttl != DefaultCacheTTL || c.maxEntries != DefaultCacheMaxEntries {
		t.Errorf("defaults = %s/%d", c.ttl, c.maxEntries)
	}
	c.Set(Filter{}, nil, nil)
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

// --- Filter keys ---

func TestFilterKey_Canonical(t *testing.T) {
	if got := (Filter{}).Key(); got != allKey {
		t.Errorf("empty filter key = %q, want %q", got, allKey)
	}

	a := Filter{Owner: "alice", Tags: []string{"y", "x", "x"}}
	b := Filter{Tags: []string{"x", "y"}, Owner: "alice"}
	if a.Key() != b.Key() {
		t.Errorf("keys differ for equivalent filters: %s vs %s", a.Key(), b.Key())
	}
	if a.Tags[0] != "y" {
		t.Error("Key must not reorder the caller's tags")
	}

	utc := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("X", 3600))
	if (Filter{DateFrom: &utc}).Key() != (Filter{DateFrom: &local}).Key() {
		t.Error("equal instants in different zones should share a key")
	}

	if (Filter{Owner: "alice"}).Key() == (Filter{Owner: "bob"}).Key() {
		t.Error("different filters share a key")
	}
}
