package taskpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shashiranjanraj/sanket/pkg/metrics"
	"github.com/shashiranjanraj/sanket/pkg/taskpool"
)

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := taskpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64

	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		pool.Submit("test", func() {
			defer wg.Done()
			count.Add(1)
		})
	}

	wg.Wait()

	if got := count.Load(); got != n {
		t.Errorf("expected %d tasks to run, got %d", n, got)
	}
}

func TestPool_SubmitNeverBlocks(t *testing.T) {
	// Idle cap of 1, but many concurrently blocked tasks: Submit must keep
	// returning promptly by spawning fresh workers.
	pool := taskpool.New(1)
	defer pool.Shutdown()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(10)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			pool.Submit("blocked", func() {
				started.Done()
				<-release
			})
		}
		close(done)
	}()

	select {
	case <-done:
		// all 10 submissions returned while every task is still blocked
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked while workers were busy")
	}

	started.Wait()
	close(release)
}

func TestPool_WorkerReuse(t *testing.T) {
	pool := taskpool.New(4)
	defer pool.Shutdown()

	// Run one task to completion so its worker parks, then confirm the
	// idle gauge reflects a reusable worker.
	ran := make(chan struct{})
	pool.Submit("first", func() { close(ran) })
	<-ran

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(metrics.WorkersIdle) >= 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("worker never parked for reuse")
}

func TestPool_PanicRecovery(t *testing.T) {
	pool := taskpool.New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)

	// A panicking task must not kill the worker or block subsequent tasks.
	pool.Submit("panics", func() {
		defer wg.Done()
		panic("intentional panic")
	})

	wg.Wait()

	// Pool must still accept and run tasks after recovering.
	normal := make(chan struct{})
	pool.Submit("normal", func() { close(normal) })

	select {
	case <-normal:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not recover from panic")
	}
}

func TestPool_PanicDoesNotReachSubmitter(t *testing.T) {
	pool := taskpool.New(2)
	defer pool.Shutdown()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic propagated to submitter: %v", r)
		}
	}()

	done := make(chan struct{})
	pool.Submit("panics", func() {
		defer close(done)
		panic("isolated")
	})
	<-done
}

func TestPool_ShutdownDropsNewTasks(t *testing.T) {
	pool := taskpool.New(2)
	pool.Shutdown()

	ran := make(chan struct{}, 1)
	pool.Submit("late", func() { ran <- struct{}{} })

	select {
	case <-ran:
		t.Fatal("task ran after shutdown")
	case <-time.After(100 * time.Millisecond):
		// dropped, as documented
	}

	pool.Shutdown() // idempotent
}

func TestPool_ShutdownWaitsForInflight(t *testing.T) {
	pool := taskpool.New(2)

	var finished atomic.Bool
	started := make(chan struct{})
	pool.Submit("slow", func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	<-started
	pool.Shutdown()

	if !finished.Load() {
		t.Fatal("Shutdown returned before in-flight task completed")
	}
}
