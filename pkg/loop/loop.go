// Package loop serialises work onto a single goroutine. Scene geometry,
// the camera and the picker are not safe for concurrent use; desktop
// bindings and key-repeat timers hand their work to a Loop instead of
// touching them directly.
package loop

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/golang/glog"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("loop: stopped")

// PanicError is a task panic. It stops the loop.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("loop: task panicked: %v", e.Value)
}

// Loop runs posted functions in order on the goroutine that called Run.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	err   error // set before done closes
}

// New returns a loop with the given queue depth.
func New(depth int) *Loop {
	if depth < 1 {
		depth = 1
	}
	return &Loop{
		tasks: make(chan func(), depth),
		done:  make(chan struct{}),
	}
}

// Post queues fn without waiting. It reports false when the loop has
// stopped or the queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	default:
		glog.V(2).Info("loop: queue full, task dropped")
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. If fn, or a task
// queued before it, panics, Do returns the *PanicError.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	task := func() {
		fn()
		close(finished)
	}
	select {
	case l.tasks <- task:
	case <-l.done:
		return l.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// The task may have been dropped with the queue.
		select {
		case <-finished:
			return nil
		default:
			return l.Err()
		}
	}
}

// Run processes tasks until ctx is cancelled or a task panics. A panic
// stops the loop and is returned as a *PanicError; cancellation returns
// nil.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.tasks:
			if err := l.run(fn); err != nil {
				l.err = err
				return err
			}
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Err is the panic that stopped the loop, or ErrStopped. It is nil while
// the loop runs.
func (l *Loop) Err() error {
	select {
	case <-l.done:
	default:
		return nil
	}
	if l.err != nil {
		return l.err
	}
	return ErrStopped
}

func (l *Loop) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PanicError{Value: r, Stack: debug.Stack()}
			glog.Errorf("%v\n%s", pe, pe.Stack)
			err = pe
		}
	}()
	fn()
	return nil
}
