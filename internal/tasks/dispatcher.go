// Package tasks runs best-effort side operations off the request path.
// Failures and panics are logged and counted; they never reach the caller.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Dispatcher runs fire-and-forget tasks and can wait for them on shutdown.
type Dispatcher struct {
	timeout time.Duration
	onFail  func(name string)

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// New returns a Dispatcher whose tasks run with the given timeout. onFail,
// if non-nil, is called with the task name after every failure.
func New(timeout time.Duration, onFail func(name string)) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout, onFail: onFail}
}

// Go schedules fn. The task context keeps parent values such as the request
// logger and trace span but not its cancellation. Go reports false once
// Wait has been called.
func (d *Dispatcher) Go(parent context.Context, name string, fn func(ctx context.Context) error) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	go func() {
		defer d.wg.Done()
		defer cancel()
		if err := d.run(ctx, fn); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("task", name).Msg("background task failed")
			if d.onFail != nil {
				d.onFail(name)
			}
		}
	}()
	return true
}

func (d *Dispatcher) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Wait stops accepting tasks and blocks until running tasks finish or ctx
// is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
