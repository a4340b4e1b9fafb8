// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzerr"
)

// DefaultAsyncQueueDepth is the async writer's bounded SPSC queue depth
// (§4.3, "bounded SPSC queue (default depth 4)").
const DefaultAsyncQueueDepth = 4

// AsyncWriter runs a RollingWriter on its own goroutine so the decode
// pipeline never blocks on Parquet I/O: WriteSpectra enqueues a batch and
// returns as soon as queue space is available, backpressuring the caller
// once the queue is full rather than buffering without bound.
//
// The first error the worker encounters is latched: every subsequent
// WriteSpectra call returns it immediately without enqueueing, and Close
// returns it once the worker has stopped.
type AsyncWriter struct {
	inner *RollingWriter
	queue chan []*ingest.IngestSpectrum
	done  chan struct{}

	mu     sync.Mutex
	err    error
	closed bool
}

// NewAsyncWriter starts the worker goroutine and returns immediately.
// depth <= 0 uses DefaultAsyncQueueDepth.
func NewAsyncWriter(inner *RollingWriter, depth int) *AsyncWriter {
	if depth <= 0 {
		depth = DefaultAsyncQueueDepth
	}
	w := &AsyncWriter{
		inner: inner,
		queue: make(chan []*ingest.IngestSpectrum, depth),
		done:  make(chan struct{}),
	}
	go w.run()
	runtime.SetFinalizer(w, finalizeAsyncWriter)
	return w
}

// finalizeAsyncWriter logs a warning if an AsyncWriter is garbage
// collected without ever having been closed, mirroring the warning the
// original implementation's Drop impl emits when a writer is dropped with
// buffered work still pending.
func finalizeAsyncWriter(w *AsyncWriter) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if !closed {
		log.Warn().Msg("mzpeak: async writer garbage-collected without Close; buffered rows may be lost")
	}
}

func (w *AsyncWriter) run() {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			w.latch(mzerr.New(mzerr.KindWorker, fmt.Sprintf("panic in async writer worker: %v", r)))
			for range w.queue {
				// Drain so the producer's blocked/future sends can observe
				// w.done instead of hanging forever.
			}
		}
	}()
	for batch := range w.queue {
		if err := w.inner.WriteSpectra(batch); err != nil {
			w.latch(err)
			for range w.queue {
			}
			return
		}
	}
}

func (w *AsyncWriter) latch(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

// Err returns the latched worker error, if any.
func (w *AsyncWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// WriteSpectra enqueues spectra for the background worker. It blocks if
// the queue is full and returns the latched error immediately if the
// worker has already failed.
func (w *AsyncWriter) WriteSpectra(spectra []*ingest.IngestSpectrum) error {
	if err := w.Err(); err != nil {
		return err
	}
	select {
	case w.queue <- spectra:
		return nil
	case <-w.done:
		if err := w.Err(); err != nil {
			return err
		}
		return mzerr.ErrAlreadyClosed
	}
}

// Close signals the worker to finish, waits for it to drain, and closes
// the underlying RollingWriter. Close is not idempotent: a second call
// returns mzerr.ErrAlreadyClosed.
func (w *AsyncWriter) Close() (RollingStats, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return RollingStats{}, mzerr.ErrAlreadyClosed
	}
	w.closed = true
	w.mu.Unlock()

	close(w.queue)
	<-w.done
	runtime.SetFinalizer(w, nil)

	if err := w.Err(); err != nil {
		w.inner.Close()
		return RollingStats{}, err
	}
	return w.inner.Close()
}
