package attr

import (
	"context"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/host"
)

// ErrWaitOnLoop is returned by Pending.Wait when called on the host loop,
// which would otherwise deadlock.
var ErrWaitOnLoop = errors.New("cannot Wait on the host loop, use Then")

// Pending is the handle for the outcome of a submitted operation. The outcome
// is delivered on the host loop. The error is an *Error if the operation ran,
// or ErrBridgeClosed if it was submitted after shutdown and never ran.
type Pending struct {
	id   string
	loop *host.Loop
	done chan struct{}

	// written once before done is closed
	res Result
	err error

	// only accessed on the host loop
	resolved  bool
	callbacks []func(Result, error)
}

func newPending(id string, loop *host.Loop) *Pending {
	return &Pending{
		id:   id,
		loop: loop,
		done: make(chan struct{}),
	}
}

// ID returns the ID of the task behind p.
func (p *Pending) ID() string {
	return p.id
}

// Done returns a channel that is closed once the outcome is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Then registers fn to be called with the outcome. fn always runs on the host
// loop and never from within Then, even if the outcome is already known.
// Then may be called from any goroutine.
func (p *Pending) Then(fn func(Result, error)) {
	ok := p.loop.Post(func() {
		if p.resolved {
			fn(p.res, p.err)
			return
		}
		p.callbacks = append(p.callbacks, fn)
	})
	if !ok {
		debug.Log("pending %v: loop is stopped, continuation is dropped", p.id)
	}
}

// Wait blocks until the outcome is available or ctx is cancelled. It is meant
// for goroutines other than the host loop; on the loop it returns
// ErrWaitOnLoop.
func (p *Pending) Wait(ctx context.Context) (Result, error) {
	if p.loop.OnLoop() {
		return Result{}, ErrWaitOnLoop
	}

	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// settle records the outcome and wakes up waiters.
func (p *Pending) settle(res Result, err error) {
	p.res, p.err = res, err
	close(p.done)
}

// deliver settles p and runs the continuations. It must run on the host loop.
func (p *Pending) deliver(res Result, err error) {
	p.settle(res, err)
	p.resolved = true

	callbacks := p.callbacks
	p.callbacks = nil
	for _, fn := range callbacks {
		fn(res, err)
	}
}

// reject fails p with err without running an operation.
func (p *Pending) reject(err error) {
	if !p.loop.Post(func() { p.deliver(Result{}, err) }) {
		p.settle(Result{}, err)
	}
}
