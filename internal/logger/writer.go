package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// queueDepth is sized for a single bot process: one dialog update or one
// broadcast batch never produces more than a handful of records at once.
const queueDepth = 128

// asyncWriter decouples record formatting from sink I/O. Records are
// queued and a single goroutine fans them out to every sink, flushing
// each record as it lands since log volume here is low.
type asyncWriter struct {
	records chan []byte
	flushes chan chan error

	mu       sync.Mutex
	sinks    []*bufio.Writer
	firstErr error

	closeOnce sync.Once
	drained   chan struct{}
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 32 * 1024
	}
	w := &asyncWriter{
		records: make(chan []byte, queueDepth),
		flushes: make(chan chan error),
		drained: make(chan struct{}),
	}
	for _, out := range writers {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	for {
		select {
		case line, ok := <-w.records:
			if !ok {
				_ = w.flushSinks()
				close(w.drained)
				return
			}
			if len(line) > 0 {
				w.noteErr(w.emit(line))
			}
		case ack := <-w.flushes:
			ack <- w.flushSinks()
		}
	}
}

// Write queues one formatted record. It blocks when the queue is full
// rather than dropping the record.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.err(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	line := make([]byte, len(p))
	copy(line, p)
	w.records <- line
	return nil
}

// Flush forces buffered content out to every sink and waits for it.
func (w *asyncWriter) Flush() error {
	if err := w.err(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushes <- ack
	return <-ack
}

// Close drains the queue, flushes, and reports the first write error
// seen over the writer's lifetime. Safe to call more than once.
func (w *asyncWriter) Close() error {
	w.closeOnce.Do(func() {
		close(w.records)
	})
	<-w.drained
	return w.err()
}

func (w *asyncWriter) emit(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.firstErr
}

func (w *asyncWriter) noteErr(err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.firstErr == nil {
		w.firstErr = err
	}
}
