// Package host implements the cooperative event loop that plays the role of
// the host runtime. All continuations of asynchronous attribute operations
// run on the goroutine that executes Loop.Run, which must never block on a
// syscall.
package host

import (
	"context"
	"sync/atomic"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/fifo"
)

// ErrRunning is returned when a second goroutine tries to service a loop.
var ErrRunning = errors.New("loop is already running")

// Loop is a single goroutine scheduler. Other goroutines hand work to it with
// Post, the loop goroutine runs the posted functions one after another in the
// order they were posted.
type Loop struct {
	queue *fifo.Queue[func()]

	// gid is the goroutine currently servicing the loop, 0 if none
	gid     atomic.Int64
	running atomic.Bool
}

// New returns a loop. It does not do anything until Run or Poll is called.
func New() *Loop {
	return &Loop{queue: fifo.New[func()]()}
}

// Post schedules fn to run on the loop goroutine. It never blocks and is safe
// to call from any goroutine, including the loop itself. Post returns false if
// the loop has been stopped, fn is not run in that case.
func (l *Loop) Post(fn func()) bool {
	ok := l.queue.Push(fn)
	if !ok {
		debug.Log("loop is stopped, dropping function")
	}
	return ok
}

func (l *Loop) enter() error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	l.gid.Store(int64(debug.GoroutineID()))
	return nil
}

func (l *Loop) leave() {
	l.gid.Store(0)
	l.running.Store(false)
}

// Run services the loop on the calling goroutine until Stop is called and all
// functions posted before have run, or until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.enter(); err != nil {
		return err
	}
	defer l.leave()

	debug.Log("loop running")
	for {
		fn, err := l.queue.Pop(ctx)
		if errors.Is(err, fifo.ErrClosed) {
			debug.Log("loop stopped")
			return nil
		}
		if err != nil {
			return err
		}

		fn()
	}
}

// Poll runs all functions that are queued at the time of the call on the
// calling goroutine and returns their number. It does not wait for new work,
// hosts that interleave the loop with other work call it periodically.
func (l *Loop) Poll() (int, error) {
	if err := l.enter(); err != nil {
		return 0, err
	}
	defer l.leave()

	n := 0
	for queued := l.queue.Len(); n < queued; n++ {
		fn, ok := l.queue.TryPop()
		if !ok {
			break
		}
		fn()
	}
	return n, nil
}

// Stop makes Run return once the functions posted so far have run. Further
// calls to Post fail.
func (l *Loop) Stop() {
	l.queue.Close()
}

// OnLoop reports whether the caller runs on the goroutine that currently
// services the loop.
func (l *Loop) OnLoop() bool {
	gid := l.gid.Load()
	return gid != 0 && gid == int64(debug.GoroutineID())
}
