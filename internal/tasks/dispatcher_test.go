package tasks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcher_RunsAndWaits(t *testing.T) {
	d := New(time.Second, nil)
	var ran int32
	for i := 0; i < 5; i++ {
		d.Go(context.Background(), "inc", func(context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if ran != 5 {
		t.Fatalf("ran=%d, want 5", ran)
	}
	if d.Go(context.Background(), "late", func(context.Context) error { return nil }) {
		t.Fatalf("Go after Wait should be refused")
	}
}

func TestDispatcher_FailuresAndPanicsAreReported(t *testing.T) {
	var mu sync.Mutex
	var failed []string
	d := New(time.Second, func(name string) {
		mu.Lock()
		failed = append(failed, name)
		mu.Unlock()
	})
	d.Go(context.Background(), "err", func(context.Context) error { return errors.New("boom") })
	d.Go(context.Background(), "panic", func(context.Context) error { panic("kaboom") })
	_ = d.Wait(context.Background())

	if len(failed) != 2 {
		t.Fatalf("want 2 failures, got %v", failed)
	}
}

func TestDispatcher_DetachedFromParentCancellation(t *testing.T) {
	d := New(time.Second, nil)
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var sawErr error
	d.Go(parent, "detached", func(ctx context.Context) error {
		sawErr = ctx.Err()
		return nil
	})
	_ = d.Wait(context.Background())
	if sawErr != nil {
		t.Fatalf("task context should outlive a cancelled parent, got %v", sawErr)
	}
}

func TestDispatcher_WaitHonorsDeadline(t *testing.T) {
	d := New(time.Second, nil)
	release := make(chan struct{})
	d.Go(context.Background(), "slow", func(context.Context) error {
		<-release
		return nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
	close(release)
}
