// Package signal is an in-memory publish/subscribe dispatcher. Callbacks are
// registered under named groups and fired together, and the dispatch protocol
// guarantees that registrations, disconnects and destroys issued from inside
// a firing callback never corrupt the in-progress pass: destructive mutations
// are recorded while a pass runs and applied atomically once it ends.
//
// Structural state (batches, listener sets) follows a single-owner
// discipline: Register, Fire, Disconnect and Destroy are expected to be
// serialized by the caller, exactly like any other non-synchronized Go
// container. Only callback execution is handed off — through a Runner — and
// may proceed concurrently with the owner and with other callbacks.
//
//	d := signal.New()
//	h := d.Register("chat", false, func(args ...any) {
//	    fmt.Println("got:", args[0])
//	})
//	d.Fire("chat", "hello")
//	h.Disconnect()
package signal

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/sanket/config"
	"github.com/shashiranjanraj/sanket/pkg/ident"
	"github.com/shashiranjanraj/sanket/pkg/logger"
	"github.com/shashiranjanraj/sanket/pkg/metrics"
	"github.com/shashiranjanraj/sanket/pkg/taskpool"
)

// Runner executes listener callbacks. The production implementation is
// *taskpool.Pool; tests and callers that need callbacks to run within the
// firing pass can supply a synchronous one.
type Runner interface {
	// Submit schedules fn without blocking. label identifies the task
	// origin in diagnostics.
	Submit(label string, fn func())
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(label string, fn func())

func (r RunnerFunc) Submit(label string, fn func()) { r(label, fn) }

// The default pool is shared by every Dispatcher that does not bring its
// own runner; it is the only resource shared across unrelated dispatchers.
var (
	defaultPoolOnce sync.Once
	defaultPool     *taskpool.Pool
)

func sharedPool() *taskpool.Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = taskpool.New(config.PoolMaxIdle())
	})
	return defaultPool
}

// Dispatcher owns the mapping from group key to Batch and exposes the public
// register/fire/destroy/introspection surface.
type Dispatcher struct {
	tag       string // short instance tag for log correlation
	seq       ident.Sequence
	batches   map[string]*Batch
	runner    Runner
	log       *slog.Logger
	destroyed bool
}

// Option configures a Dispatcher at construction.
type Option func(*Dispatcher)

// WithRunner replaces the shared task pool with a custom callback executor.
func WithRunner(r Runner) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.runner = r
		}
	}
}

// WithLogger routes this dispatcher's diagnostics through l.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates an empty Dispatcher.
func New(opts ...Option) *Dispatcher {
	tag := uuid.NewString()[:8]
	d := &Dispatcher{
		tag:     tag,
		batches: make(map[string]*Batch),
		log:     logger.Component("signal").With("dispatcher", tag),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.runner == nil {
		d.runner = sharedPool()
	}
	return d
}

// Register adds a callback under group and returns its handle. If a pass for
// the group is in progress the listener lands in the pending set and only
// becomes eligible from the next Fire onwards.
//
// once listeners disconnect themselves immediately before their first (and
// only) firing.
func (d *Dispatcher) Register(group string, once bool, cb Callback) *Listener {
	if d.destroyed {
		d.usage("destroyed", "register on destroyed dispatcher", "group", group)
		return &Listener{}
	}
	if cb == nil {
		d.usage("nil_callback", "register with nil callback", "group", group)
		return &Listener{}
	}

	b, ok := d.batches[group]
	if !ok {
		b = newBatch(d, group)
		d.batches[group] = b
	}

	l := &Listener{
		id:        d.seq.Next(),
		callback:  cb,
		once:      once,
		connected: true,
		batch:     b,
	}
	b.add(l)
	metrics.ListenersConnected.Inc()
	return l
}

// Fire invokes every active, connected listener of group with args. Firing a
// group nobody registered is a no-op, not an error. Listener callbacks run
// asynchronously through the Runner; no ordering is promised between them.
func (d *Dispatcher) Fire(group string, args ...any) {
	if d.destroyed {
		d.usage("destroyed", "fire on destroyed dispatcher", "group", group)
		return
	}
	b, ok := d.batches[group]
	if !ok {
		return
	}
	metrics.FiresTotal.WithLabelValues(group).Inc()
	b.fire(args...)
}

// Destroy tears down every batch and their listeners. Batches mid-fire
// finish their current pass first. The dispatcher accepts no further
// registrations or fires afterwards.
func (d *Dispatcher) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	for _, b := range d.batches {
		b.destroy()
	}
}

// Batch returns the live batch for group, if one exists. Self-destroyed and
// explicitly destroyed batches are not reachable here.
func (d *Dispatcher) Batch(group string) (*Batch, bool) {
	b, ok := d.batches[group]
	return b, ok
}

// Groups returns the currently known group keys.
func (d *Dispatcher) Groups() []string {
	keys := make([]string, 0, len(d.batches))
	for k := range d.batches {
		keys = append(keys, k)
	}
	return keys
}

// HasActiveOrPending reports whether the given group — or, with no argument,
// any group — has a connected listener in its active or pending set.
func (d *Dispatcher) HasActiveOrPending(group ...string) bool {
	if len(group) > 0 {
		b, ok := d.batches[group[0]]
		return ok && b.HasActiveOrPending()
	}
	for _, b := range d.batches {
		if b.HasActiveOrPending() {
			return true
		}
	}
	return false
}

// detach removes b from the group mapping. Guarded so a fresh batch that
// replaced the key is never evicted by a stale one finalizing late.
func (d *Dispatcher) detach(b *Batch) {
	if cur, ok := d.batches[b.key]; ok && cur == b {
		delete(d.batches, b.key)
	}
}

func (d *Dispatcher) usage(kind, msg string, args ...any) {
	metrics.UsageErrors.WithLabelValues(kind).Inc()
	d.log.Warn(msg, args...)
}
