// Package metrics keeps in-process latency percentiles for the worker pool.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// LatencyTracker holds the most recent window of samples in a ring buffer.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
	count   int64
}

func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = 1000
	}
	return &LatencyTracker{samples: make([]time.Duration, window)}
}

func (t *LatencyTracker) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples[t.next] = d
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.full = true
	}
	t.count++
}

type LatencyStats struct {
	Count int64         `json:"count"`
	Max   time.Duration `json:"max"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
}

// Snapshot computes percentiles over the current window. Count is the
// lifetime number of samples.
func (t *LatencyTracker) Snapshot() LatencyStats {
	t.mu.Lock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	window := make([]time.Duration, n)
	copy(window, t.samples[:n])
	count := t.count
	t.mu.Unlock()

	if n == 0 {
		return LatencyStats{}
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	return LatencyStats{
		Count: count,
		Max:   window[n-1],
		P50:   percentile(window, 0.50),
		P95:   percentile(window, 0.95),
		P99:   percentile(window, 0.99),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	return sorted[int(float64(len(sorted)-1)*p)]
}

// Registry keeps one tracker per name, created on first use.
type Registry struct {
	mu       sync.RWMutex
	window   int
	trackers map[string]*LatencyTracker
}

func NewRegistry(window int) *Registry {
	return &Registry{window: window, trackers: make(map[string]*LatencyTracker)}
}

func (r *Registry) Record(name string, d time.Duration) {
	r.mu.RLock()
	t, ok := r.trackers[name]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if t, ok = r.trackers[name]; !ok {
			t = NewLatencyTracker(r.window)
			r.trackers[name] = t
		}
		r.mu.Unlock()
	}
	t.Record(d)
}

func (r *Registry) Snapshot() map[string]LatencyStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]LatencyStats, len(r.trackers))
	for name, t := range r.trackers {
		out[name] = t.Snapshot()
	}
	return out
}
