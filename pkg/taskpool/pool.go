// Package taskpool provides the asynchronous, panic-isolating execution
// facility behind signal dispatch.
//
// A Pool reuses a bounded set of idle worker goroutines to keep allocation
// cost flat under high fire volume. Unlike a fixed-size pool, Submit never
// blocks and never rejects: when no worker is idle a fresh one is spawned,
// and workers beyond the idle cap exit after finishing their task.
//
// A panic inside a submitted task is recovered, reported through pkg/logger
// with the task label and a stack trace, and never reaches the submitter or
// any other task.
//
// Basic usage:
//
//	pool := taskpool.New(16)
//	defer pool.Shutdown()
//
//	pool.Submit("chat:listener=42", func() {
//	    deliverMessage()
//	})
package taskpool

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shashiranjanraj/sanket/pkg/logger"
	"github.com/shashiranjanraj/sanket/pkg/metrics"
)

// Pool is a growable worker pool with bounded idle retention.
type Pool struct {
	maxIdle int

	mu     sync.Mutex
	idle   []*worker
	closed bool

	once sync.Once
	wg   sync.WaitGroup
	log  *slog.Logger
}

type task struct {
	label string
	fn    func()
}

// worker owns one goroutine and a single-slot task channel. A parked worker
// is always ready to receive, so handing it a task never blocks.
type worker struct {
	pool  *Pool
	tasks chan task
}

// New creates a Pool that retains up to maxIdle workers for reuse.
func New(maxIdle int) *Pool {
	if maxIdle < 1 {
		maxIdle = 1
	}
	return &Pool{
		maxIdle: maxIdle,
		log:     logger.Component("taskpool"),
	}
}

// Submit schedules fn for asynchronous execution. It returns before fn
// necessarily runs and never blocks the caller. The label identifies the
// task origin in panic diagnostics.
//
// After Shutdown the task is dropped with a diagnostic.
func (p *Pool) Submit(label string, fn func()) {
	if fn == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.log.Warn("task dropped, pool is shut down", "task", label)
		return
	}

	var w *worker
	if n := len(p.idle); n > 0 {
		w = p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		metrics.WorkersIdle.Dec()
	} else {
		w = &worker{pool: p, tasks: make(chan task, 1)}
		p.wg.Add(1)
		go w.run()
		metrics.WorkersSpawned.Inc()
	}
	p.mu.Unlock()

	w.tasks <- task{label: label, fn: fn}
}

// Shutdown stops accepting tasks, waits for in-flight tasks to complete, and
// releases all worker goroutines. Safe to call multiple times.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		idle := p.idle
		p.idle = nil
		p.mu.Unlock()

		for _, w := range idle {
			close(w.tasks)
		}
		metrics.WorkersIdle.Sub(float64(len(idle)))

		p.wg.Wait()
	})
}

// park returns the worker to the idle list for reuse. It reports false when
// the pool is closed or the idle cap is reached, in which case the worker
// must exit.
func (p *Pool) park(w *worker) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.idle) >= p.maxIdle {
		return false
	}
	p.idle = append(p.idle, w)
	metrics.WorkersIdle.Inc()
	return true
}

// run executes tasks until the worker fails to park or its channel is closed
// at shutdown.
func (w *worker) run() {
	defer w.pool.wg.Done()
	for t := range w.tasks {
		runIsolated(w.pool.log, t)
		if !w.pool.park(w) {
			return
		}
	}
}

// runIsolated executes t, recovering panics so a bad callback cannot kill
// the worker or affect sibling tasks.
func runIsolated(log *slog.Logger, t task) {
	defer func() {
		if r := recover(); r != nil {
			metrics.TaskPanics.Inc()
			log.Error("callback panicked",
				"task", t.label,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	t.fn()
}
