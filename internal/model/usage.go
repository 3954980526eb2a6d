// ABOUTME: Cumulative token usage accumulator owned by the dispatcher
// ABOUTME: Atomic increments so concurrent dispatches never lose an update

package model

import "sync"

// Usage tracks cumulative input/output token totals across all successful
// dispatches for the lifetime of a dispatcher.
type Usage struct {
	mu     sync.Mutex
	input  int
	output int
}

// Add increments the counters. Safe for concurrent use.
func (u *Usage) Add(input, output int) {
	u.mu.Lock()
	u.input += input
	u.output += output
	u.mu.Unlock()
}

// Totals returns the current cumulative counts.
func (u *Usage) Totals() (input, output int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.input, u.output
}
