package cluster

import (
	"fmt"
	"testing"
)

func seeded(t *testing.T, spec any) *HashRing {
	t.Helper()
	r, err := New(spec)
	if err != nil {
		t.Fatalf("New(%v): %v", spec, err)
	}
	return r
}

func TestOwners(t *testing.T) {
	ring := seeded(t, map[string]int{"A": 3, "B": 1, "C": 1, "D": 2})

	for i := 0; i < 200; i++ {
		key := fmt.Sprintf("key-%d", i)
		owners := ring.Owners(key, 3)
		if len(owners) != 3 {
			t.Fatalf("Owners(%q, 3) = %v", key, owners)
		}
		first, _ := ring.GetNode(key)
		if owners[0] != first {
			t.Fatalf("first owner %q, GetNode %q", owners[0], first)
		}
		seen := map[string]bool{}
		for _, o := range owners {
			if seen[o] {
				t.Fatalf("duplicate owner %q in %v", o, owners)
			}
			seen[o] = true
		}
	}
}

func TestOwners_Clamped(t *testing.T) {
	ring := seeded(t, map[string]int{"A": 1, "B": 1})
	if got := ring.Owners("k", 10); len(got) != 2 {
		t.Fatalf("Owners clamped = %v, want both nodes", got)
	}
	if got := ring.Owners("k", 0); got != nil {
		t.Fatalf("Owners(0) = %v, want nil", got)
	}
	if got := NewHashRing().Owners("k", 2); got != nil {
		t.Fatalf("Owners on empty ring = %v", got)
	}
}

func TestRouter_Owners(t *testing.T) {
	r := NewRouter(seeded(t, []string{"A", "B", "C"}))
	owners := r.Owners("my_key", 2)
	if len(owners) != 2 {
		t.Fatalf("Router.Owners = %v", owners)
	}
	if first, _ := r.Owner("my_key"); first != owners[0] {
		t.Fatalf("first owner %q, Owner %q", owners[0], first)
	}
}

func TestRouter_LocateOwners(t *testing.T) {
	r := NewRouter(nil)
	if _, owners, ok := r.LocateOwners("k", 2); ok || owners != nil {
		t.Fatalf("empty ring: ok=%v owners=%v", ok, owners)
	}

	r = NewRouter(seeded(t, map[string]int{"A": 2, "B": 1, "C": 1}))
	loc, owners, ok := r.LocateOwners("my_key", 3)
	if !ok || len(owners) != 3 || owners[0] != loc.Node {
		t.Fatalf("loc=%+v owners=%v ok=%v", loc, owners, ok)
	}
	if _, owners, _ := r.LocateOwners("my_key", 0); owners != nil {
		t.Fatalf("n=0 owners = %v", owners)
	}
}
