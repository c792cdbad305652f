package midi

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"electone/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// SendFunc writes one message to a port (the shape returned by gomidi.SendTo)
type SendFunc func(msg gomidi.Message) error

// Output is the single writer for the synth port. Producers hand events
// over through a bounded FIFO; one goroutine (Run) performs the actual
// port writes so a slow driver never stalls the caller's thread.
//
// Events from one Send call stay contiguous and in order as long as the
// caller serializes its Send calls, which the sequencer engine does.
type Output struct {
	queue chan Event

	mu   sync.RWMutex
	send SendFunc

	written atomic.Uint64
	dropped atomic.Uint64
	errors  atomic.Uint64
}

// NewOutput creates an output with a queue of the given size. send may be
// nil until a port is attached with SetSender.
func NewOutput(send SendFunc, size int) *Output {
	if size <= 0 {
		size = 1024
	}
	return &Output{
		queue: make(chan Event, size),
		send:  send,
	}
}

// OpenOutput opens a gomidi port and wraps it in an Output
func OpenOutput(port drivers.Out, size int) (*Output, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", port.String(), err)
	}
	return NewOutput(send, size), nil
}

// SetSender swaps the port writer (hot-plug). nil discards events.
func (o *Output) SetSender(send SendFunc) {
	o.mu.Lock()
	o.send = send
	o.mu.Unlock()
}

// Send enqueues events in order. It blocks only when the queue is full.
func (o *Output) Send(events ...Event) {
	for _, e := range events {
		o.queue <- e
	}
}

// Run drains the queue until ctx is done, then flushes what is left
func (o *Output) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			o.drain()
			return
		case e := <-o.queue:
			o.write(e)
		}
	}
}

func (o *Output) drain() {
	for {
		select {
		case e := <-o.queue:
			o.write(e)
		default:
			return
		}
	}
}

func (o *Output) write(e Event) {
	o.mu.RLock()
	send := o.send
	o.mu.RUnlock()

	if send == nil {
		o.dropped.Add(1)
		return
	}
	msg := e.Message()
	if msg == nil {
		o.dropped.Add(1)
		return
	}
	if err := send(msg); err != nil {
		o.errors.Add(1)
		debug.Log("output", "write %s failed: %v", e, err)
		return
	}
	o.written.Add(1)
}

// Stats returns counters for the status display
func (o *Output) Stats() (written, dropped, errors uint64) {
	return o.written.Load(), o.dropped.Load(), o.errors.Load()
}

// Pending returns the number of queued, unwritten events
func (o *Output) Pending() int {
	return len(o.queue)
}

// Errors returns the number of failed port writes
func (o *Output) Errors() uint64 {
	return o.errors.Load()
}
