// Package parallel splits row-independent CPU kernels across goroutines.
//
// Work is only ever split along rows whose results land in disjoint output
// ranges, so a kernel produces the same bits whether it runs in parallel or
// not.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use.
	MinRows    int  // Minimum rows per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinRows:    64,
	}
}

// Sequential returns a Config that never spawns goroutines.
func Sequential() Config {
	return Config{NumWorkers: 1, MinRows: 1}
}

// Rows calls f on contiguous, non-overlapping [start, end) ranges covering
// [0, n) and waits for all of them.
// Falls back to a single call if parallelism is disabled or n is too small.
func Rows(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	minRows := max(cfg.MinRows, 1)
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*minRows {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	chunk := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, minRows)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n), split the same way as Rows.
func For(n int, f func(i int), cfg Config) {
	Rows(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}
