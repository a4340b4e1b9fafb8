// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mzml

import (
	"context"
	"runtime"
	"sync"

	"github.com/saferwall/mzpeak/internal/ingest"
)

// DefaultBatchSize is the default number of raw spectra collected before
// the parallel decode pool runs a batch (§4.3, Concurrency of decode).
const DefaultBatchSize = 5000

// DecodeBatch decodes raws concurrently across a bounded worker pool and
// returns the results in the batch's original order — the decode function
// is pure and side-effect free, so the pool fans work out and the caller
// submits sequentially, matching the repository's own approach (§5,
// Ordering guarantees). Cancelling ctx, or any single decode failing,
// aborts the remaining work and returns the first error encountered.
func DecodeBatch(ctx context.Context, raws []RawSpectrum, workers int) ([]*ingest.IngestSpectrum, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(raws) {
		workers = len(raws)
	}
	if len(raws) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*ingest.IngestSpectrum, len(raws))
	errs := make([]error, len(raws))

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var idx int
	var mu sync.Mutex
	next := func() (int, bool) {
		mu.Lock()
		defer mu.Unlock()
		if idx >= len(raws) {
			return 0, false
		}
		i := idx
		idx++
		return i, true
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				i, ok := next()
				if !ok {
					return
				}
				s, err := Convert(raws[i])
				if err != nil {
					errs[i] = err
					cancel()
					return
				}
				out[i] = s
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
