package attr

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/restic/xattrbridge/internal/fs"
	"github.com/restic/xattrbridge/internal/host"
)

// State is the lifecycle state of a Task.
type State uint32

const (
	Created State = iota
	Queued
	Running
	Completed
	Failed
	Resolved
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// Task wraps a Payload submitted to a Bridge. At any time it is owned by a
// single goroutine: the submitter until it is queued, a worker during
// compute, and the host loop during resolve. A Task is used exactly once.
type Task struct {
	id      string
	payload Payload
	state   atomic.Uint32

	result  Result
	err     error
	pending *Pending
}

func newTask(p Payload, loop *host.Loop) *Task {
	id := uuid.NewString()
	return &Task{
		id:      id,
		payload: p,
		pending: newPending(id, loop),
	}
}

// ID returns the unique ID of the task.
func (t *Task) ID() string {
	return t.id
}

// State returns the current state. It may be called from any goroutine.
func (t *Task) State() State {
	return State(t.state.Load())
}

func (t *Task) transition(from, to State) {
	if !t.state.CompareAndSwap(uint32(from), uint32(to)) {
		panic(fmt.Sprintf("task %v: invalid transition %v -> %v, current state is %v", t.id, from, to, t.State()))
	}
}

// compute runs the operation. It is called on a worker goroutine.
func (t *Task) compute(store fs.Store) {
	t.transition(Queued, Running)

	t.result, t.err = execute(store, t.payload)
	if t.err != nil {
		t.transition(Running, Failed)
		return
	}
	t.transition(Running, Completed)
}

// resolve hands the outcome to the pending handle. It is called on the host
// loop.
func (t *Task) resolve() {
	if !t.pending.loop.OnLoop() {
		panic(fmt.Sprintf("task %v resolved outside of the host loop", t.id))
	}

	from := t.State()
	if from != Completed && from != Failed {
		panic(fmt.Sprintf("task %v resolved in state %v", t.id, from))
	}

	t.pending.deliver(t.result, t.err)
	t.transition(from, Resolved)
}
