// Package testutil provides the in-process plumbing tests bind protocols
// over: a bidirectional frame pipe with readiness signalling and a JSON
// codec.
package testutil

import (
	"context"
	"sync"

	"github.com/roach88/irbind/internal/wire"
)

type pipeState struct {
	mu     sync.Mutex
	queues [2][]wire.Frame
	closed [2]bool
	signal [2]chan struct{}
}

// End is one side of an in-process channel pair. It implements both
// wire.Channel and wire.Readiness, so tests pass the same End for both.
type End struct {
	state *pipeState
	idx   int
}

// NewPipe returns a connected channel pair. Frames written to one end are
// read from the other in FIFO order.
func NewPipe() (*End, *End) {
	st := &pipeState{
		signal: [2]chan struct{}{make(chan struct{}, 1), make(chan struct{}, 1)},
	}
	return &End{state: st, idx: 0}, &End{state: st, idx: 1}
}

// Read pops the next pending frame. It returns wire.ErrWouldBlock when
// nothing is pending and wire.ErrPeerClosed once the peer has closed and
// the queue is drained.
func (e *End) Read() (wire.Frame, error) {
	st := e.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.queues[e.idx]) > 0 {
		frame := st.queues[e.idx][0]
		st.queues[e.idx] = st.queues[e.idx][1:]
		return frame, nil
	}
	if st.closed[e.idx] || st.closed[1-e.idx] {
		return wire.Frame{}, wire.ErrPeerClosed
	}
	return wire.Frame{}, wire.ErrWouldBlock
}

// Write queues a frame for the peer.
func (e *End) Write(frame wire.Frame) error {
	st := e.state
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed[e.idx] || st.closed[1-e.idx] {
		return wire.ErrPeerClosed
	}
	st.queues[1-e.idx] = append(st.queues[1-e.idx], frame)
	notify(st.signal[1-e.idx])
	return nil
}

// Close closes this end. The peer's pending frames stay readable until
// drained; after that its reads report wire.ErrPeerClosed.
func (e *End) Close() error {
	st := e.state
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed[e.idx] = true
	notify(st.signal[0])
	notify(st.signal[1])
	return nil
}

// AwaitReady blocks until this end has a frame pending, either side has
// closed, or the context is cancelled.
func (e *End) AwaitReady(ctx context.Context, _ wire.Channel) error {
	for {
		st := e.state
		st.mu.Lock()
		ready := len(st.queues[e.idx]) > 0 || st.closed[e.idx] || st.closed[1-e.idx]
		st.mu.Unlock()
		if ready {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-st.signal[e.idx]:
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
