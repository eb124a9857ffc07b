package attr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/fs"
	"github.com/restic/xattrbridge/internal/host"
	rtest "github.com/restic/xattrbridge/internal/test"
)

// loopCheckStore records calls to the store that happen on the host loop.
type loopCheckStore struct {
	fs.Store
	loop *host.Loop

	calls, onLoop atomic.Int32
}

func (s *loopCheckStore) check() {
	s.calls.Add(1)
	if s.loop.OnLoop() {
		s.onLoop.Add(1)
	}
}

func (s *loopCheckStore) Get(path, name string) ([]byte, bool, error) {
	s.check()
	return s.Store.Get(path, name)
}

func (s *loopCheckStore) Set(path, name string, value []byte) error {
	s.check()
	return s.Store.Set(path, name, value)
}

func (s *loopCheckStore) Remove(path, name string) error {
	s.check()
	return s.Store.Remove(path, name)
}

func (s *loopCheckStore) List(path string) ([]string, error) {
	s.check()
	return s.Store.List(path)
}

type bridgeEnv struct {
	loop   *host.Loop
	bridge *Bridge
	store  *loopCheckStore
	mem    *fs.Mem
}

func startBridge(t *testing.T, workers uint, paths ...string) *bridgeEnv {
	if rtest.TestDebugLog && debug.TestLogToStderr(t) {
		t.Cleanup(func() { debug.TestDisableLog(t) })
	}

	ctx, cancel := context.WithCancel(context.Background())

	mem := fs.NewMem()
	for _, p := range paths {
		mem.Create(p)
	}

	loop := host.New()
	store := &loopCheckStore{Store: mem, loop: loop}

	wg, wgCtx := errgroup.WithContext(ctx)
	b := NewBridge(wgCtx, wg, store, loop, Config{Workers: workers})

	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(context.Background())
	}()

	t.Cleanup(func() {
		b.TriggerShutdown()
		rtest.OK(t, wg.Wait())
		loop.Stop()
		rtest.OK(t, <-loopDone)
		cancel()

		rtest.Equals(t, int32(0), store.onLoop.Load(), "attribute syscalls ran on the host loop")
		rtest.Equals(t, 0, b.InFlight())
	})

	return &bridgeEnv{loop: loop, bridge: b, store: store, mem: mem}
}

func await(t testing.TB, p *Pending) (Result, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	select {
	case <-p.Done():
	case <-ctx.Done():
		t.Fatalf("task %v did not finish in time", p.ID())
	}
	return p.Wait(ctx)
}

func TestBridgeExample(t *testing.T) {
	env := startBridge(t, 2, "/tmp/f")
	b := env.bridge

	_, err := await(t, b.Submit(Set("/tmp/f", "user.tag", Bytes([]byte{1, 2, 3}))))
	rtest.OK(t, err)

	res, err := await(t, b.Submit(Get("/tmp/f", "user.tag")))
	rtest.OK(t, err)
	v, ok := res.Value()
	rtest.Assert(t, ok, "attribute not found")
	rtest.Equals(t, []byte{1, 2, 3}, v)

	_, err = await(t, b.Submit(Remove("/tmp/f", "user.tag")))
	rtest.OK(t, err)

	res, err = await(t, b.Submit(Get("/tmp/f", "user.tag")))
	rtest.OK(t, err)
	_, ok = res.Value()
	rtest.Assert(t, !ok, "attribute still present after remove")
}

func TestBridgeMatchesExecutor(t *testing.T) {
	env := startBridge(t, 4, "/f")
	rtest.OK(t, env.mem.Set("/f", "user.a", []byte("a")))
	rtest.OK(t, env.mem.Set("/f", "user.b", []byte("")))

	exec := NewExecutor(env.mem)

	payloads := []Payload{
		Get("/f", "user.a"),
		Get("/f", "user.b"),
		Get("/f", "user.missing"),
		Get("/missing", "user.a"),
		List("/f"),
		List("/missing"),
		Remove("/missing", "user.a"),
		Set("/missing", "user.a", Text("x")),
	}

	for _, p := range payloads {
		syncRes, syncErr := exec.Execute(p)
		asyncRes, asyncErr := await(t, env.bridge.Submit(p))

		rtest.Equals(t, syncRes, asyncRes, p.String())
		syncKind, _ := KindOf(syncErr)
		asyncKind, _ := KindOf(asyncErr)
		rtest.Equals(t, syncKind, asyncKind, p.String())
		rtest.Equals(t, syncErr, asyncErr, p.String())
	}

	// invalid names fail both forms the same way
	rtest.OK(t, env.mem.Set("/f", "user.\xff", nil))
	_, syncErr := exec.Execute(List("/f"))
	_, asyncErr := await(t, env.bridge.Submit(List("/f")))
	rtest.Assert(t, IsInvalidArgument(syncErr), "expected InvalidArgument, got %v", syncErr)
	rtest.Equals(t, syncErr, asyncErr)
}

func TestBridgeConcurrentTasks(t *testing.T) {
	const n = 64

	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("/file-%d", i)
	}
	env := startBridge(t, 8, paths...)

	type outcome struct {
		i     int
		value []byte
		err   error
	}
	results := make(chan outcome, n)

	// the host submits all tasks from the loop and collects the results in
	// continuations, it never blocks
	env.loop.Post(func() {
		for i := 0; i < n; i++ {
			i := i
			name := fmt.Sprintf("user.n%d", i)
			env.bridge.Submit(Set(paths[i], name, Text(name))).Then(func(_ Result, err error) {
				if err != nil {
					results <- outcome{i: i, err: err}
					return
				}
				env.bridge.Submit(Get(paths[i], name)).Then(func(res Result, err error) {
					v, _ := res.Value()
					results <- outcome{i: i, value: v, err: err}
				})
			})
		}
	})

	seen := make(map[int]bool)
	for len(seen) < n {
		select {
		case r := <-results:
			rtest.OK(t, r.err)
			rtest.Equals(t, []byte(fmt.Sprintf("user.n%d", r.i)), r.value)
			rtest.Assert(t, !seen[r.i], "result %d delivered twice", r.i)
			seen[r.i] = true
		case <-time.After(10 * time.Second):
			t.Fatalf("only %d of %d results arrived", len(seen), n)
		}
	}

	rtest.Equals(t, int32(2*n), env.store.calls.Load())
	rtest.Equals(t, int32(0), env.store.onLoop.Load())
}

func TestBridgeThenRunsOnLoop(t *testing.T) {
	env := startBridge(t, 1, "/f")

	p := env.bridge.Submit(List("/f"))
	_, err := await(t, p)
	rtest.OK(t, err)

	// registering after resolution still runs fn asynchronously on the loop
	var inThen atomic.Bool
	done := make(chan bool, 1)
	env.loop.Post(func() {
		inThen.Store(true)
		p.Then(func(_ Result, _ error) {
			done <- env.loop.OnLoop() && !inThen.Load()
		})
		inThen.Store(false)
	})

	select {
	case ok := <-done:
		rtest.Assert(t, ok, "continuation ran synchronously or off the loop")
	case <-time.After(10 * time.Second):
		t.Fatal("continuation did not run")
	}
}

func TestBridgeWaitOnLoop(t *testing.T) {
	env := startBridge(t, 1, "/f")

	errs := make(chan error, 1)
	env.loop.Post(func() {
		_, err := env.bridge.Submit(List("/f")).Wait(context.Background())
		errs <- err
	})

	rtest.Assert(t, errors.Is(<-errs, ErrWaitOnLoop), "Wait on the loop did not fail")
}

func TestBridgeShutdown(t *testing.T) {
	env := startBridge(t, 2, "/f")

	// tasks queued before the shutdown still run
	var pending []*Pending
	for i := 0; i < 20; i++ {
		pending = append(pending, env.bridge.Submit(Set("/f", fmt.Sprintf("user.%d", i), Text("x"))))
	}
	env.bridge.TriggerShutdown()

	for _, p := range pending {
		_, err := await(t, p)
		rtest.OK(t, err)
	}

	_, err := await(t, env.bridge.Submit(List("/f")))
	rtest.Assert(t, errors.Is(err, ErrBridgeClosed), "expected ErrBridgeClosed, got %v", err)
	_, ok := KindOf(err)
	rtest.Assert(t, !ok, "ErrBridgeClosed must not have a kind")
	rtest.Assert(t, !IsOsFailure(err) && !IsInvalidArgument(err), "ErrBridgeClosed classified as %v", err)

	names, err := env.mem.List("/f")
	rtest.OK(t, err)
	rtest.Equals(t, 20, len(names))
}

func TestBridgeNoCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	mem := fs.NewMem()
	mem.Create("/f")
	loop := host.New()

	// block the only worker until the context is cancelled
	release := make(chan struct{})
	var wg errgroup.Group
	b := NewBridge(ctx, &wg, &blockingStore{Store: mem, release: release}, loop, Config{Workers: 1})

	first := b.Submit(Set("/f", "user.first", Text("1")))
	second := b.Submit(Set("/f", "user.second", Text("2")))

	cancel()
	close(release)

	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(context.Background()) }()

	for _, p := range []*Pending{first, second} {
		_, err := await(t, p)
		rtest.OK(t, err)
	}

	rtest.OK(t, wg.Wait())
	loop.Stop()
	rtest.OK(t, <-loopDone)

	names, err := mem.List("/f")
	rtest.OK(t, err)
	rtest.Equals(t, []string{"user.first", "user.second"}, names)
}

type blockingStore struct {
	fs.Store
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) Set(path, name string, value []byte) error {
	s.once.Do(func() { <-s.release })
	return s.Store.Set(path, name, value)
}

func TestBridgeStats(t *testing.T) {
	env := startBridge(t, 2, "/f")

	_, err := await(t, env.bridge.Submit(Set("/f", "user.a", Text("a"))))
	rtest.OK(t, err)
	_, err = await(t, env.bridge.Submit(Remove("/f", "user.missing")))
	rtest.Assert(t, IsOsFailure(err), "expected OsFailure, got %v", err)

	rtest.Equals(t, Stats{Submitted: 2, Completed: 1, Failed: 1, Resolved: 2}, env.bridge.Stats())
}

func TestTaskStates(t *testing.T) {
	mem := fs.NewMem()
	mem.Create("/f")
	loop := host.New()

	task := newTask(Get("/f", "user.tag"), loop)
	rtest.Equals(t, Created, task.State())
	rtest.Assert(t, task.ID() != "", "task has no ID")
	rtest.Equals(t, task.ID(), task.pending.ID())

	task.transition(Created, Queued)
	task.compute(mem)
	rtest.Equals(t, Completed, task.State())

	loop.Post(task.resolve)
	n, err := loop.Poll()
	rtest.OK(t, err)
	rtest.Equals(t, 1, n)
	rtest.Equals(t, Resolved, task.State())

	res, err := task.pending.Wait(context.Background())
	rtest.OK(t, err)
	_, ok := res.Value()
	rtest.Assert(t, !ok, "attribute reported as present")

	failing := newTask(List("/missing"), loop)
	failing.transition(Created, Queued)
	failing.compute(mem)
	rtest.Equals(t, Failed, failing.State())
}

func TestTaskResolveOffLoopPanics(t *testing.T) {
	mem := fs.NewMem()
	mem.Create("/f")

	task := newTask(List("/f"), host.New())
	task.transition(Created, Queued)
	task.compute(mem)

	defer func() {
		rtest.Assert(t, recover() != nil, "resolve outside of the loop did not panic")
		rtest.Equals(t, Completed, task.State())
	}()
	task.resolve()
}

func TestTaskSingleUse(t *testing.T) {
	mem := fs.NewMem()
	mem.Create("/f")

	task := newTask(List("/f"), host.New())
	task.transition(Created, Queued)
	task.compute(mem)

	defer func() {
		rtest.Assert(t, recover() != nil, "second compute did not panic")
	}()
	task.compute(mem)
}
