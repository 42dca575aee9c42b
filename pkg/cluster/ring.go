package cluster

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// DefaultReplicas is the number of digests computed per unit of weight.
// Every digest yields PositionsPerDigest positions, so a node of weight w
// owns 4 * DefaultReplicas * w positions.
const DefaultReplicas = 10

// vnode is one virtual position on the ring and its owner.
type vnode struct {
	pos uint32
	id  string
}

// HashRing implements weighted consistent hashing with virtual nodes.
//
// A HashRing is a plain in-memory structure with no internal locking: it must
// not be mutated concurrently, and lookups must not run concurrently with
// mutations. Router wraps a HashRing for shared use.
type HashRing struct {
	replicas int
	digest   DigestFunc
	vnodes   []vnode // sorted by position, ties by owner
	registry *registry
}

// Option configures a HashRing.
type Option func(*HashRing)

// WithReplicas overrides DefaultReplicas. Non-positive values are ignored.
func WithReplicas(n int) Option {
	return func(h *HashRing) {
		if n > 0 {
			h.replicas = n
		}
	}
}

// WithDigest overrides the MD5 digest.
func WithDigest(fn DigestFunc) Option {
	return func(h *HashRing) {
		if fn != nil {
			h.digest = fn
		}
	}
}

// NewHashRing returns an empty ring.
func NewHashRing(opts ...Option) *HashRing {
	h := &HashRing{
		replicas: DefaultReplicas,
		digest:   MD5,
		registry: newRegistry(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// New returns a ring seeded with nodes in any shape AddNodes accepts.
func New(nodes any, opts ...Option) (*HashRing, error) {
	h := NewHashRing(opts...)
	if err := h.AddNodes(nodes); err != nil {
		return nil, err
	}
	return h, nil
}

// AddNodes adds a weighted mapping, a list of identifiers or a single
// identifier. On ErrInvalidArgument the ring is left untouched.
//
// Adding an identifier that is already registered duplicates its positions;
// remove it first to change its weight.
func (h *HashRing) AddNodes(spec any) error {
	nodes, err := ParseNodes(spec)
	if err != nil {
		return err
	}
	h.add(nodes)
	return nil
}

// Add is the typed form of AddNodes.
func (h *HashRing) Add(nodes ...Node) error {
	checked, err := checkNodes(nodes)
	if err != nil {
		return err
	}
	h.add(checked)
	return nil
}

func (h *HashRing) add(nodes []Node) {
	if len(nodes) == 0 {
		return
	}
	for _, n := range nodes {
		weight := h.registry.record(n)
		h.vnodes = h.appendPositions(h.vnodes, n.ID, weight)
	}
	// сортируем один раз на весь батч
	sort.Slice(h.vnodes, func(i, j int) bool {
		a, b := h.vnodes[i], h.vnodes[j]
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		return a.id < b.id
	})
}

// appendPositions generates the virtual positions of id at the given weight.
func (h *HashRing) appendPositions(dst []vnode, id string, weight int) []vnode {
	factor := h.replicas * weight
	for j := 0; j < factor; j++ {
		for _, pos := range DerivePositions(h.digest([]byte(fmt.Sprintf("%s-%d", id, j)))) {
			dst = append(dst, vnode{pos: pos, id: id})
		}
	}
	return dst
}

// RemoveNodes removes a list of identifiers. Only lists are accepted;
// unknown identifiers are skipped.
func (h *HashRing) RemoveNodes(spec any) error {
	ids, err := ParseIDs(spec)
	if err != nil {
		return err
	}
	h.Remove(ids...)
	return nil
}

// Remove drops the given nodes and exactly the positions their add calls produced.
func (h *HashRing) Remove(ids ...string) {
	doomed := make(map[vnode]int)
	for _, id := range ids {
		e, ok := h.registry.get(id)
		if !ok {
			continue
		}
		for _, w := range e.adds {
			for _, v := range h.appendPositions(nil, id, w) {
				doomed[v]++
			}
		}
		h.registry.delete(id)
	}
	if len(doomed) == 0 {
		return
	}

	filtered := h.vnodes[:0]
	for _, v := range h.vnodes {
		if doomed[v] > 0 {
			doomed[v]--
			continue
		}
		filtered = append(filtered, v)
	}
	clear(h.vnodes[len(filtered):])
	h.vnodes = filtered
}

// Location describes where a key landed.
type Location struct {
	Node     string // owner
	Key      uint32 // derived lookup key
	Position uint32 // ring position that owns the key
	Index    int    // index of Position in the ring
}

// Locate finds the first ring position strictly greater than the key's
// lookup key, wrapping to the smallest position. A position equal to the
// lookup key does not own it. ok is false on an empty ring.
func (h *HashRing) Locate(key string) (loc Location, ok bool) {
	if len(h.vnodes) == 0 {
		return Location{}, false
	}

	hash := LookupKey(h.digest, key)
	idx := sort.Search(len(h.vnodes), func(i int) bool { return h.vnodes[i].pos > hash })
	if idx == len(h.vnodes) {
		idx = 0
	}
	v := h.vnodes[idx]
	return Location{Node: v.id, Key: hash, Position: v.pos, Index: idx}, true
}

// GetNode returns the owner of key, or ok == false on an empty ring.
func (h *HashRing) GetNode(key string) (string, bool) {
	loc, ok := h.Locate(key)
	return loc.Node, ok
}

// GetNodePos returns the ring index owning key.
func (h *HashRing) GetNodePos(key string) (int, bool) {
	loc, ok := h.Locate(key)
	return loc.Index, ok
}

// Nodes returns registered identifiers in lexical order.
func (h *HashRing) Nodes() []string {
	out := make([]string, 0, h.registry.len())
	h.registry.rangeNodes(func(id string, _ registryEntry) bool {
		out = append(out, id)
		return true
	})
	return out
}

// NodesCount returns the number of registered nodes.
func (h *HashRing) NodesCount() int {
	return h.registry.len()
}

// Weight returns the recorded weight of id, 1 for unregistered nodes.
func (h *HashRing) Weight(id string) int {
	if e, ok := h.registry.get(id); ok {
		return e.weight
	}
	return 1
}

// Weights returns a copy of the recorded weights.
func (h *HashRing) Weights() map[string]int {
	out := make(map[string]int, h.registry.len())
	h.registry.rangeNodes(func(id string, e registryEntry) bool {
		out[id] = e.weight
		return true
	})
	return out
}

// Contains reports whether id is registered.
func (h *HashRing) Contains(id string) bool {
	_, ok := h.registry.get(id)
	return ok
}

// Replicas returns the per-weight digest count.
func (h *HashRing) Replicas() int {
	return h.replicas
}

// Len returns the number of virtual positions.
func (h *HashRing) Len() int {
	return len(h.vnodes)
}

// Distribution returns the number of positions owned by each node.
func (h *HashRing) Distribution() map[string]int {
	out := make(map[string]int, h.registry.len())
	for _, v := range h.vnodes {
		out[v.id]++
	}
	return out
}

// Checksum fingerprints the ring contents. Two rings with the same positions
// and owners have the same checksum regardless of how they were built.
func (h *HashRing) Checksum() uint64 {
	d := xxhash.New()
	var buf [4]byte
	for _, v := range h.vnodes {
		binary.LittleEndian.PutUint32(buf[:], v.pos)
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(v.id)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Clone returns an independent copy of the ring.
func (h *HashRing) Clone() *HashRing {
	return &HashRing{
		replicas: h.replicas,
		digest:   h.digest,
		vnodes:   append([]vnode(nil), h.vnodes...),
		registry: h.registry.clone(),
	}
}
