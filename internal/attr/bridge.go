package attr

import (
	"context"
	"runtime"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/errgroup"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/fifo"
	"github.com/restic/xattrbridge/internal/fs"
	"github.com/restic/xattrbridge/internal/host"
)

// ErrBridgeClosed rejects operations submitted after TriggerShutdown. It is
// not an *Error, the operation never reached the store.
var ErrBridgeClosed = errors.New("bridge is shut down")

// Config configures a Bridge.
type Config struct {
	// Workers is the number of worker goroutines, GOMAXPROCS if zero.
	Workers uint
}

// Stats counts tasks by the last step they passed.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Resolved  int64
}

// Bridge runs operations on a pool of worker goroutines and delivers their
// outcome on the host loop. Submit never blocks. Tasks are neither cancelled
// nor retried, and there is no ordering between tasks: two tasks modifying
// the same attribute race, the file system decides which one wins.
type Bridge struct {
	store fs.Store
	loop  *host.Loop

	jobs     *fifo.Queue[*Task]
	inflight *xsync.MapOf[string, *Task]

	submitted, completed, failed, resolved *xsync.Counter
}

// NewBridge returns a new bridge. The workers are started in wg. They stop
// once TriggerShutdown was called, or ctx was cancelled, and all tasks
// submitted before have been computed.
func NewBridge(ctx context.Context, wg *errgroup.Group, store fs.Store, loop *host.Loop, cfg Config) *Bridge {
	workers := cfg.Workers
	if workers == 0 {
		workers = uint(runtime.GOMAXPROCS(0))
	}

	debug.Log("new bridge with %v workers", workers)

	b := &Bridge{
		store:     store,
		loop:      loop,
		jobs:      fifo.New[*Task](),
		inflight:  xsync.NewMapOf[string, *Task](),
		submitted: xsync.NewCounter(),
		completed: xsync.NewCounter(),
		failed:    xsync.NewCounter(),
		resolved:  xsync.NewCounter(),
	}

	for i := uint(0); i < workers; i++ {
		wg.Go(b.worker)
	}

	// submitted tasks run to completion even if ctx is cancelled, only the
	// intake is closed
	context.AfterFunc(ctx, b.TriggerShutdown)

	return b
}

// Submit queues p and returns immediately. The outcome is delivered to the
// returned handle on the host loop.
func (b *Bridge) Submit(p Payload) *Pending {
	t := newTask(p, b.loop)
	t.transition(Created, Queued)
	b.inflight.Store(t.id, t)
	b.submitted.Inc()

	if !b.jobs.Push(t) {
		debug.Log("bridge is shut down, rejecting %v", p)
		b.submitted.Dec()
		b.inflight.Delete(t.id)
		t.pending.reject(ErrBridgeClosed)
		return t.pending
	}

	debug.Log("task %v submitted: %v", t.id, p)
	return t.pending
}

func (b *Bridge) worker() error {
	for {
		t, err := b.jobs.Pop(context.Background())
		if errors.Is(err, fifo.ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		b.compute(t)
	}
}

func (b *Bridge) compute(t *Task) {
	id := t.id
	t.compute(b.store)

	if t.err != nil {
		debug.Log("task %v failed: %v", id, t.err)
		b.failed.Inc()
	} else {
		debug.Log("task %v completed", id)
		b.completed.Inc()
	}

	// from here on t belongs to the host loop
	if !b.loop.Post(func() { b.resolve(t) }) {
		debug.Log("task %v: loop is stopped, outcome is not delivered on the loop", id)
		b.inflight.Delete(id)
		t.pending.settle(t.result, t.err)
	}
}

func (b *Bridge) resolve(t *Task) {
	debug.Log("resolving task %v", t.id)
	b.inflight.Delete(t.id)
	b.resolved.Inc()
	t.resolve()
}

// TriggerShutdown stops accepting new tasks. Workers exit once the queued
// tasks have been computed.
func (b *Bridge) TriggerShutdown() {
	b.jobs.Close()
}

// InFlight returns the number of submitted tasks that are not resolved yet.
func (b *Bridge) InFlight() int {
	return b.inflight.Size()
}

// Stats returns the task counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Submitted: b.submitted.Value(),
		Completed: b.completed.Value(),
		Failed:    b.failed.Value(),
		Resolved:  b.resolved.Value(),
	}
}
