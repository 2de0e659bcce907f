package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/sanket/pkg/scope"
	"github.com/shashiranjanraj/sanket/pkg/signal"
)

func inline() signal.Option {
	return signal.WithRunner(signal.RunnerFunc(func(_ string, fn func()) { fn() }))
}

func TestForCreatesAndReusesScopes(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "user.dropped", inline())

	d1 := r.For("u-1")
	require.NotNil(t, d1)
	assert.Same(t, d1, r.For("u-1"))
	assert.True(t, r.Has("u-1"))
	assert.ElementsMatch(t, []string{"u-1"}, r.IDs())

	count := 0
	d1.Register("inventory", false, func(...any) { count++ })
	d1.Fire("inventory")
	assert.Equal(t, 1, count)
}

func TestLifecycleFireDestroysScope(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "user.dropped", inline())

	count := 0
	d := r.For("u-41")
	d.Register("inventory", false, func(...any) { count++ })

	engine.Fire("user.dropped", "u-41")

	assert.False(t, r.Has("u-41"))
	d.Fire("inventory") // destroyed dispatcher: diagnostic + no-op
	assert.Equal(t, 0, count)
	assert.False(t, d.HasActiveOrPending())
}

func TestLifecycleFireWithNonStringIdentity(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "entity.removed", inline())

	r.For("1337")
	engine.Fire("entity.removed", 1337) // entity handles arrive as integers

	assert.False(t, r.Has("1337"))
}

func TestLifecycleFireForUnknownIdentityIsNoOp(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "user.dropped", inline())

	r.For("u-1")
	engine.Fire("user.dropped", "somebody-else")
	engine.Fire("user.dropped") // missing identity: diagnostic only

	assert.True(t, r.Has("u-1"))
}

func TestSetDestroySignalOverride(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "entity.removed", inline())

	r.SetDestroySignal("entity.deleted", false)
	group, locked := r.DestroySignal()
	assert.Equal(t, "entity.deleted", group)
	assert.False(t, locked)

	r.For("e-1")
	engine.Fire("entity.removed", "e-1") // old signal is unwired
	assert.True(t, r.Has("e-1"))

	engine.Fire("entity.deleted", "e-1")
	assert.False(t, r.Has("e-1"))
}

func TestSetDestroySignalLock(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "entity.removed", inline())

	r.SetDestroySignal("entity.deleted", true)
	r.SetDestroySignal("entity.hijacked", false) // locked: diagnostic + no-op

	group, locked := r.DestroySignal()
	assert.Equal(t, "entity.deleted", group)
	assert.True(t, locked)

	r.For("e-9")
	engine.Fire("entity.hijacked", "e-9")
	assert.True(t, r.Has("e-9"))

	engine.Fire("entity.deleted", "e-9")
	assert.False(t, r.Has("e-9"))
}

func TestRegistryDestroy(t *testing.T) {
	engine := signal.New(inline())
	r := scope.NewRegistry(engine, "user.dropped", inline())

	d := r.For("u-1")
	r.For("u-2")

	r.Destroy()

	assert.Empty(t, r.IDs())
	assert.False(t, d.HasActiveOrPending())
	assert.False(t, engine.HasActiveOrPending("user.dropped"),
		"registry must stop watching the engine")

	engine.Fire("user.dropped", "u-1") // nothing left to react

	orphan := r.For("u-3")
	require.NotNil(t, orphan, "misuse after destroy still returns a usable handle")
	assert.False(t, r.Has("u-3"))
}
