package metrics

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// Collector captures counters and gauges.
type Collector interface {
	IncCounter(name string, labels map[string]string, delta float64)
	SetGauge(name string, labels map[string]string, value float64)
}

// Registry is an in-memory Collector that renders the text exposition format.
type Registry struct {
	mu     sync.Mutex
	values map[string]float64
}

func NewRegistry() *Registry {
	return &Registry{values: make(map[string]float64)}
}

func (r *Registry) IncCounter(name string, labels map[string]string, delta float64) {
	k := series(name, labels)
	r.mu.Lock()
	r.values[k] += delta
	r.mu.Unlock()
}

func (r *Registry) SetGauge(name string, labels map[string]string, value float64) {
	k := series(name, labels)
	r.mu.Lock()
	r.values[k] = value
	r.mu.Unlock()
}

// Value returns the current value of a series, 0 if never written.
func (r *Registry) Value(name string, labels map[string]string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[series(name, labels)]
}

// WriteTo writes every series sorted by name.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.Lock()
	keys := make([]string, 0, len(r.values))
	for k := range r.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + " " + strconv.FormatFloat(r.values[k], 'f', -1, 64) + "\n"
	}
	r.mu.Unlock()

	var total int64
	for _, l := range lines {
		n, err := io.WriteString(w, l)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// series formats name{k="v",...} with labels in key order.
func series(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%q", k, labels[k])
	}
	b.WriteByte('}')
	return b.String()
}
