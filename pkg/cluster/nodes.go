package cluster

import (
	"fmt"
	"math"
	"sort"

	"conhash/pkg/ringerrors"
)

// MaxWeight bounds a single node's weight. At DefaultReplicas a node of
// MaxWeight owns 40000 positions.
const MaxWeight = 1000

// Node is a real node of the ring. Weight 0 means "not specified": the
// currently recorded weight is kept, or 1 is used for a new node.
type Node struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Weight int    `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty"`
}

// ParseNodes normalises everything AddNodes accepts into a node list:
// a weighted mapping (map[string]int or decoded map[string]any), a list of
// identifiers ([]string or decoded []any), a single identifier, Node or []Node.
// nil yields an empty list. Any other shape is ErrInvalidArgument.
func ParseNodes(spec any) ([]Node, error) {
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case string:
		return checkNodes([]Node{{ID: v}})
	case Node:
		return checkNodes([]Node{v})
	case []Node:
		return checkNodes(append([]Node(nil), v...))
	case []string:
		nodes := make([]Node, 0, len(v))
		for _, id := range v {
			nodes = append(nodes, Node{ID: id})
		}
		return checkNodes(nodes)
	case []any:
		nodes := make([]Node, 0, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("node #%d is %T, want string: %w", i, item, ringerrors.ErrInvalidArgument)
			}
			nodes = append(nodes, Node{ID: id})
		}
		return checkNodes(nodes)
	case map[string]int:
		nodes := make([]Node, 0, len(v))
		for id, w := range v {
			if w < 1 {
				return nil, fmt.Errorf("node %q weight %d: %w", id, w, ringerrors.ErrInvalidArgument)
			}
			nodes = append(nodes, Node{ID: id, Weight: w})
		}
		return checkNodes(sortByID(nodes))
	case map[string]any:
		nodes := make([]Node, 0, len(v))
		for id, raw := range v {
			w, err := toWeight(raw)
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", id, err)
			}
			nodes = append(nodes, Node{ID: id, Weight: w})
		}
		return checkNodes(sortByID(nodes))
	default:
		return nil, fmt.Errorf("nodes must be a weighted mapping, a list or a single identifier, got %T: %w",
			spec, ringerrors.ErrInvalidArgument)
	}
}

// ParseIDs normalises the argument of RemoveNodes. Only lists are accepted.
func ParseIDs(spec any) ([]string, error) {
	switch v := spec.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		ids := make([]string, 0, len(v))
		for i, item := range v {
			id, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("node #%d is %T, want string: %w", i, item, ringerrors.ErrInvalidArgument)
			}
			ids = append(ids, id)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("nodes must be a list, got %T: %w", spec, ringerrors.ErrInvalidArgument)
	}
}

func checkNodes(nodes []Node) ([]Node, error) {
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("empty node identifier: %w", ringerrors.ErrInvalidArgument)
		}
		if n.Weight < 0 || n.Weight > MaxWeight {
			return nil, fmt.Errorf("node %q weight %d outside 1..%d: %w", n.ID, n.Weight, MaxWeight, ringerrors.ErrInvalidArgument)
		}
	}
	return nodes, nil
}

func sortByID(nodes []Node) []Node {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// toWeight accepts the numeric types produced by encoding/json, goccy/go-yaml
// and BurntSushi/toml.
func toWeight(raw any) (int, error) {
	var w int64
	switch v := raw.(type) {
	case int:
		w = int64(v)
	case int32:
		w = int64(v)
	case int64:
		w = v
	case uint32:
		w = int64(v)
	case uint64:
		if v > MaxWeight {
			return 0, fmt.Errorf("weight %d too large: %w", v, ringerrors.ErrInvalidArgument)
		}
		w = int64(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("weight %v is not an integer: %w", v, ringerrors.ErrInvalidArgument)
		}
		if v > MaxWeight || v < 0 {
			return 0, fmt.Errorf("weight %v out of range: %w", v, ringerrors.ErrInvalidArgument)
		}
		w = int64(v)
	default:
		return 0, fmt.Errorf("weight is %T, want integer: %w", raw, ringerrors.ErrInvalidArgument)
	}
	if w < 1 || w > MaxWeight {
		return 0, fmt.Errorf("weight %d outside 1..%d: %w", w, MaxWeight, ringerrors.ErrInvalidArgument)
	}
	return int(w), nil
}
