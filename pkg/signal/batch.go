package signal

import "github.com/shashiranjanraj/sanket/pkg/metrics"

// Batch is the per-group listener container. It holds the active set (the
// listeners eligible to fire) and the pending set (listeners registered while
// a pass was in progress, promoted after it ends), and defers every
// structural mutation that would otherwise corrupt an in-progress pass.
//
// A Batch moves through three states: idle, firing, destroyed. Destroyed is
// terminal; registering the same group key afterwards creates a fresh Batch,
// never a resurrection.
type Batch struct {
	key  string
	disp *Dispatcher

	firing    bool
	destroyed bool
	dirty     bool // destroy requested while firing

	active  map[uint64]*Listener
	pending map[uint64]*Listener
}

func newBatch(d *Dispatcher, key string) *Batch {
	return &Batch{
		key:     key,
		disp:    d,
		active:  make(map[uint64]*Listener),
		pending: make(map[uint64]*Listener),
	}
}

// Key returns the group key this batch serves.
func (b *Batch) Key() string { return b.key }

// Firing reports whether a dispatch pass is currently in progress.
func (b *Batch) Firing() bool { return b.firing }

// Destroyed reports whether the batch has been torn down.
func (b *Batch) Destroyed() bool { return b.destroyed }

// HasActiveOrPending reports whether any connected listener exists in either
// set.
func (b *Batch) HasActiveOrPending() bool {
	for _, l := range b.active {
		if l.connected {
			return true
		}
	}
	for _, l := range b.pending {
		if l.connected {
			return true
		}
	}
	return false
}

// fire runs one dispatch pass over the active set.
//
// While the pass runs, the active set is never structurally mutated:
// registrations land in pending, disconnects and destroys only set flags.
// That is what makes iteration safe without locks or a defensive copy.
func (b *Batch) fire(args ...any) {
	if b.destroyed {
		b.usage("destroyed", "fire on destroyed batch")
		return
	}
	if b.firing {
		// Re-entrant fire on the same group from inside one of its own
		// callbacks. Rejected rather than queued; see DESIGN.md.
		b.usage("reentrant_fire", "re-entrant fire rejected")
		return
	}

	b.firing = true
	for _, l := range b.active {
		if !l.connected || l.pending {
			continue
		}
		l.fire(args...)
	}
	b.firing = false

	b.settle()
}

// settle applies the mutations deferred during the pass, in order: promote
// pending listeners, sweep disconnected and dirty listeners out of the
// active set, then resolve any destruction the pass accumulated.
func (b *Batch) settle() {
	for id, l := range b.pending {
		delete(b.pending, id)
		if !l.connected {
			continue // disconnected before promotion; dropped
		}
		l.pending = false
		b.active[id] = l
	}

	for id, l := range b.active {
		if !l.connected || l.dirty {
			delete(b.active, id)
		}
	}

	if b.dirty {
		// Destroy was requested mid-pass; finalize regardless of what the
		// sets still hold.
		b.destroy()
		return
	}
	if len(b.active) == 0 && len(b.pending) == 0 {
		b.destroy()
	}
}

// Destroy tears the batch down, disconnecting every listener and detaching
// it from the dispatcher. Mid-fire the teardown is deferred to the end of
// the current pass.
func (b *Batch) Destroy() {
	b.destroy()
}

func (b *Batch) destroy() {
	if b.destroyed {
		return
	}
	if b.firing {
		b.dirty = true
		return
	}

	for _, l := range b.active {
		if l.connected {
			l.connected = false
			metrics.ListenersConnected.Dec()
		}
	}
	for _, l := range b.pending {
		if l.connected {
			l.connected = false
			metrics.ListenersConnected.Dec()
		}
	}
	b.active = make(map[uint64]*Listener)
	b.pending = make(map[uint64]*Listener)
	b.destroyed = true

	if b.disp != nil {
		b.disp.detach(b)
	}
}

// add places a new listener in the set the batch state dictates: pending
// while a pass is in progress, active otherwise.
func (b *Batch) add(l *Listener) {
	if b.firing {
		l.pending = true
		b.pending[l.id] = l
		return
	}
	b.active[l.id] = l
}

func (b *Batch) usage(kind, msg string) {
	metrics.UsageErrors.WithLabelValues(kind).Inc()
	if b.disp != nil {
		b.disp.log.Warn(msg, "group", b.key)
	}
}
