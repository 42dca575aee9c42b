package cluster

import (
	"github.com/zhangyunhao116/skipmap"
)

// registryEntry remembers the weight of every add call that produced
// positions for a node, so removal regenerates exactly what was inserted.
type registryEntry struct {
	weight int
	adds   []int
}

type orderedEntries = skipmap.FuncMap[string, registryEntry]

// registry is the set of registered nodes ordered by identifier.
type registry struct {
	entries *orderedEntries
}

func newRegistry() *registry {
	return &registry{
		entries: skipmap.NewFunc[string, registryEntry](func(a, b string) bool {
			return a < b
		}),
	}
}

func (r *registry) get(id string) (registryEntry, bool) {
	return r.entries.Load(id)
}

// record registers an add call and returns the weight positions must be generated with.
func (r *registry) record(n Node) int {
	e, _ := r.entries.Load(n.ID)
	switch {
	case n.Weight > 0:
		e.weight = n.Weight
	case e.weight == 0:
		e.weight = 1
	}
	// копия, чтобы не делить backing array с клонами
	adds := make([]int, len(e.adds), len(e.adds)+1)
	copy(adds, e.adds)
	e.adds = append(adds, e.weight)
	r.entries.Store(n.ID, e)
	return e.weight
}

func (r *registry) delete(id string) {
	r.entries.Delete(id)
}

func (r *registry) len() int {
	return r.entries.Len()
}

// rangeNodes walks the registry in identifier order.
func (r *registry) rangeNodes(f func(id string, e registryEntry) bool) {
	r.entries.Range(f)
}

func (r *registry) clone() *registry {
	c := newRegistry()
	r.entries.Range(func(id string, e registryEntry) bool {
		c.entries.Store(id, registryEntry{weight: e.weight, adds: append([]int(nil), e.adds...)})
		return true
	})
	return c
}
