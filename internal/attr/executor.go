package attr

import (
	"fmt"

	"github.com/restic/xattrbridge/internal/fs"
)

// Executor runs operations on the calling goroutine, blocking until the
// attribute syscall returns. It holds no state besides the store and may be
// used concurrently.
type Executor struct {
	store fs.Store
}

// NewExecutor returns an Executor operating on store.
func NewExecutor(store fs.Store) *Executor {
	return &Executor{store: store}
}

// Execute runs p and returns its result. Failures are returned as *Error.
func (e *Executor) Execute(p Payload) (Result, error) {
	return execute(e.store, p)
}

// execute is shared by the Executor and the workers of the Bridge.
func execute(store fs.Store, p Payload) (Result, error) {
	switch p.op {
	case OpGet:
		value, ok, err := store.Get(p.path, p.name)
		return marshalGet(p, value, ok, err)
	case OpSet:
		return marshalUnit(p, store.Set(p.path, p.name, p.value.Raw()))
	case OpRemove:
		return marshalUnit(p, store.Remove(p.path, p.name))
	case OpList:
		names, err := store.List(p.path)
		return marshalList(p, names, err)
	default:
		panic(fmt.Sprintf("invalid operation %v", p.op))
	}
}
