// Package baseline provides the rolling-window baseline tracker shared by all
// analyzers: a bounded FIFO of scalar samples with incrementally maintained
// mean and standard deviation.
package baseline

import (
	"fmt"
	"math"
)

// Stats is a read-only snapshot of a window's statistics.
// StdDev uses the population (n) formula, fixed for the life of the process,
// and is defined as 0 when Samples < 2 so downstream anomaly scoring never
// divides by an undefined value.
type Stats struct {
	Mean    float64
	StdDev  float64
	Samples int
}

// Window is a bounded sliding window of scalar samples with FIFO eviction.
// It maintains a running sum and sum of squares so Observe is O(1).
// A Window is owned by exactly one analyzer and is not safe for concurrent
// use without external locking.
type Window struct {
	values []float64
	head   int // next write position
	count  int
	sum    float64
	sumSq  float64
}

// NewWindow creates a rolling window holding at most capacity samples.
func NewWindow(capacity int) (*Window, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be positive, got %d", capacity)
	}
	return &Window{values: make([]float64, capacity)}, nil
}

// Observe appends a sample, evicting the oldest when full, and returns the
// updated statistics over exactly the current contents.
func (w *Window) Observe(v float64) Stats {
	if w.count == len(w.values) {
		old := w.values[w.head]
		w.sum -= old
		w.sumSq -= old * old
	} else {
		w.count++
	}
	w.values[w.head] = v
	w.sum += v
	w.sumSq += v * v
	w.head = (w.head + 1) % len(w.values)
	return w.Stats()
}

// Stats returns the current statistics without mutating the window.
func (w *Window) Stats() Stats {
	if w.count == 0 {
		return Stats{}
	}
	n := float64(w.count)
	mean := w.sum / n
	s := Stats{Mean: mean, Samples: w.count}
	if w.count < 2 {
		return s
	}
	// Population variance; clamp tiny negative values from float cancellation.
	variance := w.sumSq/n - mean*mean
	if variance > 0 {
		s.StdDev = math.Sqrt(variance)
	}
	return s
}

// Len returns the number of samples currently held.
func (w *Window) Len() int { return w.count }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.values) }

// Values returns the current contents in arrival order, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, 0, w.count)
	start := w.head - w.count
	if start < 0 {
		start += len(w.values)
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.values[(start+i)%len(w.values)])
	}
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	w.head = 0
	w.count = 0
	w.sum = 0
	w.sumSq = 0
}
