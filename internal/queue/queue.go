// Package queue provides a bounded FIFO with explicit halt and
// complete-adding signals, used to hand decoded frames between goroutines.
package queue

import (
	"errors"
	"sync"
)

var (
	// ErrHalted is returned by every operation once the queue is halted, and
	// by Push once adding is complete. It is a cooperative stop signal.
	ErrHalted = errors.New("queue halted")

	// ErrDrained is returned by Pop once adding is complete and every item
	// has been taken.
	ErrDrained = errors.New("queue drained")
)

// State describes where a queue is in its lifecycle.
type State int

const (
	// Active queues accept pushes and pops.
	Active State = iota
	// Halted queues fail every operation.
	Halted
	// AddingComplete queues reject pushes but still hold items.
	AddingComplete
	// Completed queues have no items and will never get more.
	Completed
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Halted:
		return "halted"
	case AddingComplete:
		return "adding-complete"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Bounded is a FIFO holding at most Cap items. One producer goroutine pushes
// and calls CompleteAdding; one consumer goroutine pops. Halt may be called
// from anywhere.
type Bounded[T any] struct {
	items        chan T
	halted       chan struct{}
	complete     chan struct{}
	haltOnce     sync.Once
	completeOnce sync.Once
}

// NewBounded creates a queue holding at most capacity items.
// Capacities below one are raised to one.
func NewBounded[T any](capacity int) *Bounded[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Bounded[T]{
		items:    make(chan T, capacity),
		halted:   make(chan struct{}),
		complete: make(chan struct{}),
	}
}

// Cap returns the queue capacity.
func (q *Bounded[T]) Cap() int {
	return cap(q.items)
}

// Len returns the number of queued items.
func (q *Bounded[T]) Len() int {
	return len(q.items)
}

// Push appends v, blocking while the queue is full.
func (q *Bounded[T]) Push(v T) error {
	if err := q.pushable(); err != nil {
		return err
	}

	select {
	case q.items <- v:
		return nil
	case <-q.halted:
		return ErrHalted
	case <-q.complete:
		return ErrHalted
	}
}

// Emplace builds an item with build and appends it. build is not called when
// the queue no longer accepts items.
func (q *Bounded[T]) Emplace(build func() T) error {
	if err := q.pushable(); err != nil {
		return err
	}
	return q.Push(build())
}

func (q *Bounded[T]) pushable() error {
	select {
	case <-q.halted:
		return ErrHalted
	case <-q.complete:
		return ErrHalted
	default:
		return nil
	}
}

// Pop removes the oldest item, blocking while the queue is empty.
func (q *Bounded[T]) Pop() (T, error) {
	var zero T

	select {
	case <-q.halted:
		return zero, ErrHalted
	default:
	}

	select {
	case v := <-q.items:
		return v, nil
	default:
	}

	select {
	case v := <-q.items:
		return v, nil
	case <-q.halted:
		return zero, ErrHalted
	case <-q.complete:
		select {
		case v := <-q.items:
			return v, nil
		default:
			return zero, ErrDrained
		}
	}
}

// Halt moves the queue to its terminal state and wakes every blocked caller.
// It is idempotent.
func (q *Bounded[T]) Halt() {
	q.haltOnce.Do(func() { close(q.halted) })
}

// CompleteAdding stops further pushes. Queued items can still be popped.
// It is idempotent.
func (q *Bounded[T]) CompleteAdding() {
	q.completeOnce.Do(func() { close(q.complete) })
}

// State reports the current lifecycle state.
func (q *Bounded[T]) State() State {
	select {
	case <-q.halted:
		return Halted
	default:
	}

	select {
	case <-q.complete:
		if len(q.items) == 0 {
			return Completed
		}
		return AddingComplete
	default:
		return Active
	}
}
