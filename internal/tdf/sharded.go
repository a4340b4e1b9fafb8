// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package tdf

import (
	"context"
	"sync"

	"github.com/saferwall/mzpeak/internal/ingest"
)

// Source streams RawFrames for one shard of a TDF dataset, holding its own
// read handle into the source library so no shard contends with another
// for a lock (§5, Scheduling model).
type Source interface {
	// Next returns the next frame, or ok=false once the shard is exhausted.
	Next() (RawFrame, bool, error)
	Close() error
}

// Sink receives decoded spectra for one shard. internal/writer's
// RollingWriter (or AsyncWriter) implements this.
type Sink interface {
	WriteSpectra([]*ingest.IngestSpectrum) error
}

// Shard pairs one Source with the Sink that owns its output.
type Shard struct {
	Source Source
	Sink   Sink
}

// ShardStats aggregates one shard's conversion outcome.
type ShardStats struct {
	ShardIndex int
	FramesRead int
	PeaksRead  int
}

// ShardedConverter runs one producer+writer goroutine per shard, each
// owning its own Source and Sink, decoding frames with the shared
// calibration tables and precursor lookup (§5, "A sharded TDF converter
// that runs one producer and writer per shard").
type ShardedConverter struct {
	TofToMZ        TofToMZ
	ScanToMobility ScanToMobility
	Precursors     map[int]FramePrecursor
	BatchSize      int
}

// Run decodes every shard concurrently and returns per-shard stats in
// shard-index order. A decode failure in any shard cancels the others and
// the first error observed is returned.
func (c *ShardedConverter) Run(ctx context.Context, shards []Shard) ([]ShardStats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stats := make([]ShardStats, len(shards))
	errs := make([]error, len(shards))

	var wg sync.WaitGroup
	wg.Add(len(shards))
	for i, shard := range shards {
		go func(i int, shard Shard) {
			defer wg.Done()
			defer shard.Source.Close()

			var st ShardStats
			st.ShardIndex = i
			batchSize := c.BatchSize
			if batchSize <= 0 {
				batchSize = 256
			}
			batch := make([]*ingest.IngestSpectrum, 0, batchSize)

			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := shard.Sink.WriteSpectra(batch); err != nil {
					return err
				}
				batch = batch[:0]
				return nil
			}

			for {
				select {
				case <-ctx.Done():
					errs[i] = ctx.Err()
					return
				default:
				}

				frame, ok, err := shard.Source.Next()
				if err != nil {
					errs[i] = err
					cancel()
					return
				}
				if !ok {
					break
				}
				spec, err := DecodeFrame(frame, c.TofToMZ, c.ScanToMobility, c.Precursors)
				if err != nil {
					errs[i] = err
					cancel()
					return
				}
				st.FramesRead++
				st.PeaksRead += spec.Peaks.Len()
				batch = append(batch, spec)
				if len(batch) >= batchSize {
					if err := flush(); err != nil {
						errs[i] = err
						cancel()
						return
					}
				}
			}
			if err := flush(); err != nil {
				errs[i] = err
				cancel()
				return
			}
			stats[i] = st
		}(i, shard)
	}
	wg.Wait()

	// A shard stopped by another shard's failure records context.Canceled;
	// prefer the failing shard's own error over that.
	var first error
	for _, err := range errs {
		if err != nil && (first == nil || first == context.Canceled) {
			first = err
		}
	}
	if first != nil {
		return nil, first
	}
	return stats, nil
}
