// Package nodeorder sorts node identifiers shaped like "ip:port" by their
// numeric segments, e.g. "192.168.0.101:11212" as (192, 168, 0, 101, 11212).
// It is a presentation helper; the ring itself never looks at identifier format.
//
// Separators are ASCII non-word characters (Go's \W), and segments must be
// plain decimal digits: "1_000" and non-ASCII digits are rejected.
package nodeorder

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"conhash/pkg/ringerrors"
)

// every non-word character is a separator, consecutive separators produce empty segments
var separator = regexp.MustCompile(`\W`)

// Key returns the integer tuple of id.
func Key(id string) ([]uint64, error) {
	parts := separator.Split(id, -1)
	key := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("node %q: segment %q: %w", id, p, ringerrors.ErrNonNumericID)
		}
		key = append(key, n)
	}
	return key, nil
}

// Numeric returns a copy of ids ordered by their integer tuples. Tuples
// compare element by element, a shorter prefix sorts first, equal tuples
// keep their input order. Any non-numeric segment fails the whole call.
func Numeric(ids []string) ([]string, error) {
	type keyed struct {
		id  string
		key []uint64
	}

	items := make([]keyed, 0, len(ids))
	for _, id := range ids {
		k, err := Key(id)
		if err != nil {
			return nil, err
		}
		items = append(items, keyed{id: id, key: k})
	}

	slices.SortStableFunc(items, func(a, b keyed) int {
		return slices.Compare(a.key, b.key)
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out, nil
}
