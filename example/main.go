// Package main is a minimal demo of the sanket dispatch library.
//
// To run this example:
//
//	cd example
//	go run .
package main

import (
	"fmt"
	"time"

	"github.com/shashiranjanraj/sanket/pkg/scope"
	"github.com/shashiranjanraj/sanket/pkg/signal"
)

func main() {
	d := signal.New()

	// A plain listener and a fire-once listener on the same group.
	d.Register("chat.message", false, func(args ...any) {
		fmt.Println("chat:", args)
	})
	d.Register("chat.message", true, func(args ...any) {
		fmt.Println("first message only:", args)
	})

	d.Fire("chat.message", "hello", 1)
	d.Fire("chat.message", "world", 2) // the once listener is gone by now

	// Listeners may rewire the group from inside their own callback; the
	// change takes effect on the next fire.
	var bootstrap *signal.Listener
	bootstrap = d.Register("tick", false, func(args ...any) {
		fmt.Println("bootstrap tick:", args)
		d.Register("tick", false, func(args ...any) {
			fmt.Println("steady-state tick:", args)
		})
		bootstrap.Disconnect()
	})
	d.Fire("tick", 1)
	d.Fire("tick", 2)

	// Per-user dispatchers, torn down when the engine reports the user gone.
	// The engine runs its callbacks inline so the registry teardown happens
	// on the owning goroutine.
	engine := signal.New(signal.WithRunner(
		signal.RunnerFunc(func(_ string, fn func()) { fn() }),
	))
	users := scope.NewRegistry(engine, "user.dropped")

	users.For("u-41").Register("inventory", false, func(args ...any) {
		fmt.Println("u-41 inventory:", args)
	})
	users.For("u-41").Fire("inventory", "sword")

	engine.Fire("user.dropped", "u-41")
	fmt.Println("u-41 still scoped:", users.Has("u-41"))

	time.Sleep(100 * time.Millisecond) // let pooled callbacks drain

	d.Destroy()
	users.Destroy()
	engine.Destroy()
}
