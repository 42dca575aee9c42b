package cluster

import (
	"log/slog"
	"sync"

	"conhash/pkg/nodeorder"
)

// Router is the single owner of a HashRing. Mutations take the write lock,
// lookups and enumeration share the read lock.
type Router struct {
	mu   sync.RWMutex
	ring *HashRing
}

// NewRouter takes ownership of ring; the caller must not touch it afterwards.
func NewRouter(ring *HashRing) *Router {
	if ring == nil {
		ring = NewHashRing()
	}
	return &Router{ring: ring}
}

// Owner returns the node owning key; ok is false while the ring is empty.
func (r *Router) Owner(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.GetNode(key)
}

// Locate is Owner with the ring coordinates of the match.
func (r *Router) Locate(key string) (Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.Locate(key)
}

func (r *Router) AddNodes(spec any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ring.AddNodes(spec); err != nil {
		return err
	}
	slog.Info("ring nodes added", "nodes", r.ring.NodesCount(), "positions", r.ring.Len())
	return nil
}

func (r *Router) RemoveNodes(spec any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ring.RemoveNodes(spec); err != nil {
		return err
	}
	slog.Info("ring nodes removed", "nodes", r.ring.NodesCount(), "positions", r.ring.Len())
	return nil
}

// Sync makes the registered node set equal to nodes. New nodes are added,
// missing ones removed, and nodes whose weight changed are removed and
// re-added so their positions are regenerated from scratch.
func (r *Router) Sync(nodes []Node) (added, removed []string, err error) {
	nodes, err = checkNodes(nodes)
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]int, len(nodes))
	for _, n := range nodes {
		w := n.Weight
		if w == 0 {
			w = 1
		}
		want[n.ID] = w
	}

	var toAdd []Node
	for _, id := range r.ring.Nodes() {
		w, keep := want[id]
		switch {
		case !keep:
			removed = append(removed, id)
		case w != r.ring.Weight(id):
			removed = append(removed, id)
			toAdd = append(toAdd, Node{ID: id, Weight: w})
		}
	}
	for id, w := range want {
		if !r.ring.Contains(id) {
			toAdd = append(toAdd, Node{ID: id, Weight: w})
		}
	}
	toAdd = sortByID(toAdd)

	r.ring.Remove(removed...)
	r.ring.add(toAdd)
	for _, n := range toAdd {
		added = append(added, n.ID)
	}

	if len(added) > 0 || len(removed) > 0 {
		slog.Info("ring synced", "added", added, "removed", removed, "nodes", r.ring.NodesCount())
	}
	return added, removed, nil
}

// UpdateRing replaces the owned ring.
func (r *Router) UpdateRing(ring *HashRing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ring = ring
	slog.Info("ring replaced", "nodes", ring.NodesCount(), "positions", ring.Len())
}

// Snapshot returns a copy that can be read without the lock.
func (r *Router) Snapshot() *HashRing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.Clone()
}

// Nodes returns registered identifiers in lexical order.
func (r *Router) Nodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.Nodes()
}

// AllNodes returns registered identifiers in numeric-tuple order and fails
// with ErrNonNumericID if any identifier is not ip:port shaped.
func (r *Router) AllNodes() ([]string, error) {
	return nodeorder.Numeric(r.Nodes())
}

func (r *Router) NodesCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.NodesCount()
}

// Stats is a consistent view of the ring for reporting.
type Stats struct {
	Nodes     int
	Positions int
	Checksum  uint64
	Owned     map[string]int
	Weights   map[string]int
}

func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Stats{
		Nodes:     r.ring.NodesCount(),
		Positions: r.ring.Len(),
		Checksum:  r.ring.Checksum(),
		Owned:     r.ring.Distribution(),
		Weights:   r.ring.Weights(),
	}
}
