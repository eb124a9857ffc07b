// Package xattrbridge reads and modifies extended file attributes on behalf of
// a host that runs on a single cooperative goroutine, the host loop. Every
// operation exists in two forms: the Sync form blocks the calling goroutine
// until the syscall returns, the other form returns a Pending immediately,
// runs the syscall on a worker goroutine and delivers the outcome on the host
// loop.
package xattrbridge

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/restic/xattrbridge/internal/attr"
	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/fs"
	"github.com/restic/xattrbridge/internal/host"
	"github.com/restic/xattrbridge/internal/options"
)

type (
	// Loop is the host loop, see NewLoop.
	Loop = host.Loop
	// Value is the value of a set operation, either raw bytes or text.
	Value = attr.Value
	// Pending is the handle returned by the asynchronous operations.
	Pending = attr.Pending
	// Result is the outcome of a successful operation.
	Result = attr.Result
	// Error is returned by all operations.
	Error = attr.Error
	// Kind classifies an Error.
	Kind = attr.Kind
	// Store provides access to extended attributes.
	Store = fs.Store
)

const (
	InvalidArgument = attr.InvalidArgument
	OsFailure       = attr.OsFailure
)

var (
	// NewLoop returns a host loop. The host services it with Run or Poll.
	NewLoop = host.New
	// Bytes returns a Value holding a copy of b.
	Bytes = attr.Bytes
	// Text returns a Value holding the UTF-8 encoding of s.
	Text = attr.Text

	IsInvalidArgument = attr.IsInvalidArgument
	IsOsFailure       = attr.IsOsFailure
	KindOf            = attr.KindOf

	ErrWaitOnLoop   = attr.ErrWaitOnLoop
	ErrBridgeClosed = attr.ErrBridgeClosed
)

// Options configure Attributes. The tagged fields can be set with
// `-o bridge.<name>=<value>`.
type Options struct {
	Workers        uint `option:"workers" help:"number of goroutines running attribute syscalls (default: GOMAXPROCS)"`
	FollowSymlinks bool `option:"follow-symlinks" help:"operate on the target of a symbolic link instead of the link itself"`

	// Store replaces the local file system, mainly for tests.
	Store Store
}

func init() {
	options.Register("bridge", Options{})
}

// Attributes provides the attribute operations.
type Attributes struct {
	loop   *Loop
	exec   *attr.Executor
	bridge *attr.Bridge
	wg     *errgroup.Group
}

// New returns Attributes that deliver asynchronous outcomes on loop. Close
// must be called to stop the workers.
func New(ctx context.Context, loop *Loop, opts Options) (*Attributes, error) {
	if loop == nil {
		return nil, errors.New("no host loop given")
	}

	store := opts.Store
	if store == nil {
		store = fs.NewLocal(opts.FollowSymlinks)
	}

	debug.Log("new attributes with options %+v", opts)

	var wg errgroup.Group
	return &Attributes{
		loop:   loop,
		exec:   attr.NewExecutor(store),
		bridge: attr.NewBridge(ctx, &wg, store, loop, attr.Config{Workers: opts.Workers}),
		wg:     &wg,
	}, nil
}

// Loop returns the host loop outcomes are delivered on.
func (a *Attributes) Loop() *Loop {
	return a.loop
}

// GetAttributeSync returns the value of the attribute name of path. ok is
// false if the attribute does not exist.
func (a *Attributes) GetAttributeSync(path, name string) (value []byte, ok bool, err error) {
	res, err := a.exec.Execute(attr.Get(path, name))
	if err != nil {
		return nil, false, err
	}
	value, ok = res.Value()
	return value, ok, nil
}

// GetAttribute is the asynchronous form of GetAttributeSync, use
// Result.Value on the outcome.
func (a *Attributes) GetAttribute(path, name string) *Pending {
	return a.bridge.Submit(attr.Get(path, name))
}

// SetAttributeSync stores value as the attribute name of path.
func (a *Attributes) SetAttributeSync(path, name string, value Value) error {
	_, err := a.exec.Execute(attr.Set(path, name, value))
	return err
}

// SetAttribute is the asynchronous form of SetAttributeSync.
func (a *Attributes) SetAttribute(path, name string, value Value) *Pending {
	return a.bridge.Submit(attr.Set(path, name, value))
}

// RemoveAttributeSync removes the attribute name of path.
func (a *Attributes) RemoveAttributeSync(path, name string) error {
	_, err := a.exec.Execute(attr.Remove(path, name))
	return err
}

// RemoveAttribute is the asynchronous form of RemoveAttributeSync.
func (a *Attributes) RemoveAttribute(path, name string) *Pending {
	return a.bridge.Submit(attr.Remove(path, name))
}

// ListAttributesSync returns the attribute names of path. The call fails with
// an InvalidArgument error if any name is not valid UTF-8.
func (a *Attributes) ListAttributesSync(path string) ([]string, error) {
	res, err := a.exec.Execute(attr.List(path))
	if err != nil {
		return nil, err
	}
	return res.Names(), nil
}

// ListAttributes is the asynchronous form of ListAttributesSync, use
// Result.Names on the outcome.
func (a *Attributes) ListAttributes(path string) *Pending {
	return a.bridge.Submit(attr.List(path))
}

// InFlight returns the number of asynchronous operations not resolved yet.
func (a *Attributes) InFlight() int {
	return a.bridge.InFlight()
}

// Close rejects further asynchronous operations and waits until all
// submitted ones have been computed. Their outcomes are delivered on the
// loop, which must keep running until then.
func (a *Attributes) Close() error {
	a.bridge.TriggerShutdown()
	return a.wg.Wait()
}
