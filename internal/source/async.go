package source

import (
	"context"
	"errors"
	"io"
	"sync"

	fserrors "github.com/five82/framescope/internal/errors"
	"github.com/five82/framescope/internal/job"
	"github.com/five82/framescope/internal/queue"
)

type entry struct {
	frame Frame
	end   bool
}

// Async decodes ahead on a background goroutine. The wrapped Source belongs
// to that goroutine until Close returns.
type Async struct {
	src   *Source
	queue *queue.Bounded[entry]
	ctx   context.Context
	stop  func() bool
	done  chan struct{}

	// err is written by the producer before it pushes the end sentinel.
	err   error
	ended bool

	closeOnce sync.Once
	closeErr  error
}

// NewAsync starts decoding src into a queue of capacity frames. Cancelling
// ctx halts the queue.
func NewAsync(ctx context.Context, src *Source, capacity int) *Async {
	a := &Async{
		src:   src,
		queue: queue.NewBounded[entry](capacity),
		ctx:   ctx,
		done:  make(chan struct{}),
	}
	a.stop = context.AfterFunc(ctx, a.queue.Halt)
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for {
		f, err := a.src.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				a.err = err
			}
			if pushErr := a.queue.Push(entry{end: true}); pushErr != nil {
				a.src.logger.Debug("Frame queue halted before end of stream", "error", pushErr)
			}
			a.queue.CompleteAdding()
			return
		}
		if err := a.queue.Push(entry{frame: f}); err != nil {
			return
		}
	}
}

// Read returns the next frame. After the last frame it returns io.EOF, or
// the error that stopped the producer, on every call. Reads after Close fail
// with a KindIO error.
func (a *Async) Read() (Frame, error) {
	if a.ctx.Err() != nil {
		return Frame{}, fserrors.NewCancelledError()
	}
	if a.ended {
		return Frame{}, a.result()
	}

	e, err := a.queue.Pop()
	switch {
	case errors.Is(err, queue.ErrDrained):
		a.ended = true
		return Frame{}, a.result()
	case err != nil:
		if a.ctx.Err() != nil {
			return Frame{}, fserrors.NewCancelledError()
		}
		if errors.Is(err, queue.ErrHalted) {
			return Frame{}, errClosed("read from")
		}
		return Frame{}, err
	case e.end:
		a.ended = true
		return Frame{}, a.result()
	}
	return e.frame, nil
}

func (a *Async) result() error {
	if a.err != nil {
		return a.err
	}
	return io.EOF
}

// FrameCount is the number of frames in the segment.
func (a *Async) FrameCount() int { return a.src.FrameCount() }

// FrameRate is the segment frame rate.
func (a *Async) FrameRate() float64 { return a.src.FrameRate() }

// ReverseTransform maps tracks back to the original media.
func (a *Async) ReverseTransform(tracks []job.Track) { a.src.ReverseTransform(tracks) }

// Close halts the producer, waits for it to exit and closes the source.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.queue.Halt()
		a.stop()
		<-a.done
		a.closeErr = a.src.Close()
	})
	return a.closeErr
}
