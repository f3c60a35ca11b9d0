package logger

import (
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// asyncWriter copies queued lines to every sink from a single goroutine.
// The first sink error sticks and is returned by later calls.
type asyncWriter struct {
	queue chan []byte
	flush chan chan error
	done  chan struct{}
	sinks []io.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(writers []io.Writer, queueSize int) *asyncWriter {
	if queueSize <= 0 {
		queueSize = 1024
	}
	w := &asyncWriter{
		queue: make(chan []byte, queueSize),
		flush: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, s := range writers {
		if s != nil {
			w.sinks = append(w.sinks, s)
		}
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case p, ok := <-w.queue:
			if !ok {
				return
			}
			w.write(p)
		case ack := <-w.flush:
			w.drain()
			ack <- w.Err()
		}
	}
}

func (w *asyncWriter) drain() {
	for {
		select {
		case p, ok := <-w.queue:
			if !ok {
				return
			}
			w.write(p)
		default:
			return
		}
	}
}

func (w *asyncWriter) write(p []byte) {
	for _, s := range w.sinks {
		if _, err := s.Write(p); err != nil {
			w.fail(err)
			return
		}
	}
}

// Write queues a copy of p. It blocks while the queue is full.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.Err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until every line queued before the call reached the sinks.
func (w *asyncWriter) Flush() error {
	ack := make(chan error, 1)
	select {
	case w.flush <- ack:
		return <-ack
	case <-w.done:
		return w.Err()
	}
}

// Close drains the queue and stops the writer goroutine.
func (w *asyncWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
	return w.Err()
}

func (w *asyncWriter) Err() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) fail(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}
