package cluster

import (
	"fmt"
	"strconv"
	"strings"

	"conhash/pkg/ringerrors"
)

// ParsePeers parses a comma-separated peer list such as
// "node1:8080=3,node2:8080,node3:8080" into nodes. The weight follows the
// last '=' and defaults to 1. Blank entries are skipped.
func ParsePeers(raw string) ([]Node, error) {
	var nodes []Node
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, weight := p, 1
		if i := strings.LastIndexByte(p, '='); i >= 0 {
			w, err := strconv.Atoi(strings.TrimSpace(p[i+1:]))
			if err != nil || w < 1 || w > MaxWeight {
				return nil, fmt.Errorf("%w: peer %q: bad weight", ringerrors.ErrInvalidArgument, p)
			}
			id, weight = strings.TrimSpace(p[:i]), w
		}
		if id == "" {
			return nil, fmt.Errorf("%w: peer %q: empty identifier", ringerrors.ErrInvalidArgument, p)
		}
		nodes = append(nodes, Node{ID: id, Weight: weight})
	}
	return nodes, nil
}
