package fifo_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/fifo"
	rtest "github.com/restic/xattrbridge/internal/test"
)

func TestQueueOrder(t *testing.T) {
	q := fifo.New[int]()
	for i := 0; i < 100; i++ {
		rtest.Assert(t, q.Push(i), "push %d failed", i)
	}
	rtest.Equals(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		item, err := q.Pop(context.Background())
		rtest.OK(t, err)
		rtest.Equals(t, i, item)
	}

	_, ok := q.TryPop()
	rtest.Assert(t, !ok, "queue should be empty")
}

func TestQueueCloseDrains(t *testing.T) {
	q := fifo.New[string]()
	q.Push("a")
	q.Push("b")
	q.Close()
	q.Close()

	rtest.Assert(t, !q.Push("c"), "push after close succeeded")

	for _, exp := range []string{"a", "b"} {
		item, err := q.Pop(context.Background())
		rtest.OK(t, err)
		rtest.Equals(t, exp, item)
	}

	_, err := q.Pop(context.Background())
	rtest.Assert(t, errors.Is(err, fifo.ErrClosed), "expected ErrClosed, got %v", err)
}

func TestQueuePopCancel(t *testing.T) {
	q := fifo.New[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	rtest.Assert(t, errors.Is(err, context.DeadlineExceeded), "expected deadline error, got %v", err)
}

func TestQueueCloseWakesConsumers(t *testing.T) {
	q := fifo.New[int]()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Pop(context.Background())
			errs <- err
		}()
	}

	q.Close()
	wg.Wait()
	close(errs)

	for err := range errs {
		rtest.Assert(t, errors.Is(err, fifo.ErrClosed), "expected ErrClosed, got %v", err)
	}
}

func TestQueueConcurrent(t *testing.T) {
	const producers, perProducer, consumers = 8, 250, 4

	q := fifo.New[int]()

	var m sync.Mutex
	var got []int

	var consumersWg sync.WaitGroup
	for i := 0; i < consumers; i++ {
		consumersWg.Add(1)
		go func() {
			defer consumersWg.Done()
			for {
				item, err := q.Pop(context.Background())
				if err != nil {
					return
				}
				m.Lock()
				got = append(got, item)
				m.Unlock()
			}
		}()
	}

	var producersWg sync.WaitGroup
	for p := 0; p < producers; p++ {
		producersWg.Add(1)
		go func(p int) {
			defer producersWg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(p*perProducer + i)
			}
		}(p)
	}

	producersWg.Wait()
	q.Close()
	consumersWg.Wait()

	sort.Ints(got)
	rtest.Equals(t, producers*perProducer, len(got))
	for i, v := range got {
		if v != i {
			t.Fatalf("item %d missing or duplicated, found %d", i, v)
		}
	}
}
