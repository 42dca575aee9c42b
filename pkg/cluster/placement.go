package cluster

// Owners returns up to n distinct nodes for key, walking the ring clockwise
// from the position that owns it. The first entry is always GetNode(key).
// Used to pick replica sets; n larger than the node count returns every node.
func (h *HashRing) Owners(key string, n int) []string {
	loc, ok := h.Locate(key)
	if !ok || n <= 0 {
		return nil
	}
	if c := h.NodesCount(); n > c {
		n = c
	}

	res := make([]string, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < len(h.vnodes) && len(res) < n; i++ {
		id := h.vnodes[(loc.Index+i)%len(h.vnodes)].id
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

// Owners is HashRing.Owners under the read lock.
func (r *Router) Owners(key string, n int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ring.Owners(key, n)
}

// LocateOwners returns the match for key and its first n owners from one
// view of the ring. n <= 0 skips the owner walk.
func (r *Router) LocateOwners(key string, n int) (Location, []string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.ring.Locate(key)
	if !ok {
		return Location{}, nil, false
	}
	return loc, r.ring.Owners(key, n), true
}
