package signal

import (
	"fmt"

	"github.com/shashiranjanraj/sanket/pkg/metrics"
)

// Callback is the function shape every listener wraps. Arguments are the
// values passed to Fire, in order.
type Callback func(args ...any)

// Listener is one registered callback plus its lifecycle flags. It is owned
// by exactly one Batch for its whole life; the handle returned by Register
// exposes Disconnect and the single-listener Fire.
//
// A disconnected listener never reconnects.
type Listener struct {
	id       uint64
	callback Callback
	once     bool

	connected bool
	dirty     bool
	pending   bool

	batch *Batch // non-owning back-reference; the Batch owns the Listener
}

// ID returns the listener's unique identifier. Identifiers are issued in
// strictly increasing order per dispatcher and never reused.
func (l *Listener) ID() uint64 { return l.id }

// Connected reports whether the listener can still fire.
func (l *Listener) Connected() bool { return l.connected }

// Once reports whether the listener disconnects after its first firing.
func (l *Listener) Once() bool { return l.once }

// Fire submits only this listener's callback, bypassing group membership.
//
// A listener registered during an in-progress pass for its group has not
// been promoted yet; firing it directly is a usage error and a no-op until
// the pass ends. A disconnected listener is likewise a no-op.
func (l *Listener) Fire(args ...any) {
	if !l.connected {
		return
	}
	if l.pending {
		l.usage("pending_fire", "listener fired before promotion")
		return
	}
	l.fire(args...)
}

// fire runs the once-listener bookkeeping and hands the callback to the
// runner.
// Callers have already checked connected and pending.
func (l *Listener) fire(args ...any) {
	cb := l.callback
	b := l.batch
	if l.once {
		l.Disconnect()
	}
	if b == nil || b.disp == nil {
		return
	}
	label := fmt.Sprintf("%s:listener=%d", b.key, l.id)
	metrics.CallbacksSubmitted.Inc()
	b.disp.runner.Submit(label, func() { cb(args...) })
}

// Disconnect permanently removes the listener. Idempotent.
//
// If the owning batch is mid-fire the removal is deferred: the listener is
// flagged and swept out in the post-fire cleanup pass. Otherwise it is
// removed immediately and the batch self-destroys if emptied.
func (l *Listener) Disconnect() {
	if !l.connected {
		return
	}
	l.connected = false
	metrics.ListenersConnected.Dec()

	b := l.batch
	if b == nil || b.destroyed {
		return
	}
	if b.firing {
		l.dirty = true
		return
	}

	if l.pending {
		delete(b.pending, l.id)
	} else {
		delete(b.active, l.id)
	}
	if len(b.active) == 0 && len(b.pending) == 0 {
		b.destroy()
	}
}

func (l *Listener) usage(kind, msg string) {
	metrics.UsageErrors.WithLabelValues(kind).Inc()
	if b := l.batch; b != nil && b.disp != nil {
		b.disp.log.Warn(msg, "group", b.key, "listener", l.id)
	}
}
