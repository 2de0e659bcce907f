// Package scope keys collections of signal Dispatchers by an external
// identity — a connected-user handle, a scene-object handle — and wires their
// destruction to engine-supplied lifecycle notifications.
//
// Lifecycle notifications arrive as ordinary fires on an engine Dispatcher:
// the registry watches one group there and destroys the scoped Dispatcher
// whose identity the fire names. Which group triggers destruction can be
// overridden per registry, optionally locking the choice against further
// overrides.
//
//	engine := signal.New()
//	users := scope.NewRegistry(engine, "user.dropped")
//
//	users.For("u-41").Register("inventory", false, onInventory)
//	engine.Fire("user.dropped", "u-41") // tears down u-41's dispatcher
//
// The registry follows the same single-owner discipline as pkg/signal. The
// watch callback mutates registry state, so the engine Dispatcher must run
// callbacks on the owning thread (an inline Runner) or the caller must
// serialize externally.
package scope

import (
	"fmt"
	"log/slog"

	"github.com/shashiranjanraj/sanket/pkg/logger"
	"github.com/shashiranjanraj/sanket/pkg/metrics"
	"github.com/shashiranjanraj/sanket/pkg/signal"
)

// Registry owns one signal.Dispatcher per external identity.
type Registry struct {
	engine *signal.Dispatcher
	group  string // lifecycle group whose fire destroys a scope
	locked bool
	watch  *signal.Listener

	scoped    map[string]*signal.Dispatcher
	opts      []signal.Option // applied to every scoped dispatcher
	log       *slog.Logger
	destroyed bool
}

// NewRegistry creates a registry whose scopes are destroyed when destroyGroup
// fires on engine with the identity as first argument. opts are passed to
// every scoped dispatcher the registry creates.
func NewRegistry(engine *signal.Dispatcher, destroyGroup string, opts ...signal.Option) *Registry {
	r := &Registry{
		engine: engine,
		scoped: make(map[string]*signal.Dispatcher),
		opts:   opts,
		log:    logger.Component("scope"),
	}
	r.setWatch(destroyGroup)
	return r
}

// For returns the dispatcher scoped to id, creating it on first use.
func (r *Registry) For(id string) *signal.Dispatcher {
	if r.destroyed {
		r.log.Warn("scope lookup on destroyed registry", "identity", id)
		return signal.New(r.opts...) // inert orphan; caller misuse, never nil
	}
	d, ok := r.scoped[id]
	if !ok {
		d = signal.New(r.opts...)
		r.scoped[id] = d
	}
	return d
}

// Has reports whether a dispatcher currently exists for id.
func (r *Registry) Has(id string) bool {
	_, ok := r.scoped[id]
	return ok
}

// IDs returns the identities with a live scoped dispatcher.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.scoped))
	for id := range r.scoped {
		ids = append(ids, id)
	}
	return ids
}

// Drop destroys and removes the dispatcher scoped to id, if any.
func (r *Registry) Drop(id string) {
	d, ok := r.scoped[id]
	if !ok {
		return
	}
	delete(r.scoped, id)
	d.Destroy()
}

// SetDestroySignal replaces the lifecycle group that triggers destruction.
// With lock set, every later override attempt is a usage diagnostic and a
// no-op.
func (r *Registry) SetDestroySignal(group string, lock bool) {
	if r.locked {
		metrics.UsageErrors.WithLabelValues("locked_override").Inc()
		r.log.Warn("destroy signal is locked, override ignored",
			"current", r.group, "requested", group)
		return
	}
	r.setWatch(group)
	r.locked = lock
}

// DestroySignal returns the lifecycle group currently wired to destruction
// and whether it is locked.
func (r *Registry) DestroySignal() (group string, locked bool) {
	return r.group, r.locked
}

// Destroy tears down every scoped dispatcher and stops watching the engine.
func (r *Registry) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	if r.watch != nil {
		r.watch.Disconnect()
		r.watch = nil
	}
	for id, d := range r.scoped {
		delete(r.scoped, id)
		d.Destroy()
	}
}

func (r *Registry) setWatch(group string) {
	if r.watch != nil {
		r.watch.Disconnect()
	}
	r.group = group
	r.watch = r.engine.Register(group, false, func(args ...any) {
		if len(args) == 0 {
			r.log.Warn("lifecycle fire without identity", "group", group)
			return
		}
		r.Drop(fmt.Sprint(args[0]))
	})
}
