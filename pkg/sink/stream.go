package sink

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/matzehuels/semiframes/pkg/family"
)

type item struct {
	n int
	f family.Family
}

// Stream serializes writes from many goroutines onto one Sink.
//
// Producers hand families to Send, which never waits on the sink: a pump
// goroutine buffers them in an unbounded queue and a single writer goroutine
// drains the queue into the sink. After the first write error the writer
// keeps draining but discards everything; Close reports that error.
type Stream struct {
	sink   Sink
	in     chan item
	out    chan item
	done   chan struct{}
	failed atomic.Bool

	closeOnce sync.Once
	err       error
}

// NewStream starts the pump and writer goroutines for s. The writer stops
// writing when ctx is cancelled.
func NewStream(ctx context.Context, s Sink) *Stream {
	st := &Stream{
		sink: s,
		in:   make(chan item, 64),
		out:  make(chan item),
		done: make(chan struct{}),
	}
	go st.pump()
	go st.write(ctx)
	return st
}

// Send queues f for writing. It must not be called after Close.
func (s *Stream) Send(n int, f family.Family) {
	s.in <- item{n: n, f: f}
}

// Failed reports whether a write has failed. Producers may poll it to stop
// early.
func (s *Stream) Failed() bool { return s.failed.Load() }

// Close waits until every queued family has been handled and returns the
// first write error. It does not close the underlying sink.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.in) })
	<-s.done
	return s.err
}

func (s *Stream) pump() {
	var queue []item
	in := s.in
	for in != nil || len(queue) > 0 {
		var out chan item
		var next item
		if len(queue) > 0 {
			out, next = s.out, queue[0]
		}
		select {
		case it, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, it)
		case out <- next:
			queue[0] = item{}
			queue = queue[1:]
		}
	}
	close(s.out)
}

func (s *Stream) write(ctx context.Context) {
	defer close(s.done)
	for it := range s.out {
		if s.err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			s.failed.Store(true)
			continue
		}
		if err := s.sink.Write(ctx, it.n, it.f); err != nil {
			s.err = err
			s.failed.Store(true)
		}
	}
}
