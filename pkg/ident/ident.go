// Package ident issues the unique listener identifiers used by pkg/signal.
//
// Each Dispatcher owns its own Sequence rather than sharing a process-wide
// counter, so identifiers stay meaningful per dispatcher and the library
// carries no ambient global state.
package ident

import "sync/atomic"

// Sequence issues strictly increasing uint64 identifiers starting at 1.
// Identifiers are never reused for the lifetime of the Sequence.
// The zero value is ready to use.
type Sequence struct {
	n atomic.Uint64
}

// Next returns the next identifier.
func (s *Sequence) Next() uint64 {
	return s.n.Add(1)
}

// Current returns the most recently issued identifier, or 0 if none.
func (s *Sequence) Current() uint64 {
	return s.n.Load()
}
