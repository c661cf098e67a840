package realtime

import (
	"context"
	"errors"

	"devconnect/contract"
)

var errSinkClosed = errors.New("sink closed")

// Sink buffers events for one consumer. The registry hands events to Deliver
// from any session's goroutine; the owning connection drains Events from its
// write loop. A full buffer means the consumer is too slow and the delivery
// fails, which makes the registry drop the session.
type Sink struct {
	Events chan contract.Event
	done   chan struct{}
}

func NewSink(bufferSize int) *Sink {
	return &Sink{
		Events: make(chan contract.Event, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *Sink) Deliver(ctx context.Context, e contract.Event) error {
	select {
	case <-s.done:
		return errSinkClosed
	default:
	}
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("sink buffer full")
	}
}

// Close makes every further Deliver fail so the registry cleans the session
// up on its next broadcast.
func (s *Sink) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
