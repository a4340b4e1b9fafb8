// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/schema"
)

// DefaultMaxPeaksPerFile is the rolling writer's default rotation
// threshold (§4.3, "rolling/part-file rotation... default max 50M
// peaks/file").
const DefaultMaxPeaksPerFile = 50_000_000

// partFileName mirrors the original implementation's zero-padded part
// numbering, e.g. "part-00000.parquet".
func partFileName(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("part-%05d.parquet", index))
}

// RollingWriter writes a stream of spectra as v1 long-table Parquet part
// files under dir, opening a new part whenever the current one's peak
// count would exceed MaxPeaksPerFile. It implements tdf.Sink and the
// mzml-side equivalent so either source decoder can drive it directly.
type RollingWriter struct {
	Dir             string
	Schema          *arrow.Schema
	Props           *parquet.WriterProperties
	MaxPeaksPerFile int

	partIndex   int
	cur         *TableWriter
	curFile     *os.File
	curPeaks    int
	totalPeaks  int
	totalRows   int64
	parts       []TableStats
	closed      bool
}

// NewRollingWriter returns a RollingWriter that has not yet opened its
// first part file; the first call to WriteSpectra opens it lazily.
func NewRollingWriter(dir string, policy schema.EncodingPolicy, kv map[string]string) *RollingWriter {
	sc := schema.LongTableSchema(kv)
	return &RollingWriter{
		Dir:             dir,
		Schema:          sc,
		Props:           schema.BuildWriterProperties(policy, kv),
		MaxPeaksPerFile: DefaultMaxPeaksPerFile,
	}
}

func (w *RollingWriter) openNextPart() error {
	if w.cur != nil {
		if err := w.finishCurrent(); err != nil {
			return err
		}
	}
	path := partFileName(w.Dir, w.partIndex)
	f, err := os.Create(path)
	if err != nil {
		return mzerr.Wrap(mzerr.KindIO, "create part file "+path, err)
	}
	tw, err := NewTableWriter(w.Schema, f, w.Props)
	if err != nil {
		f.Close()
		return err
	}
	w.cur = tw
	w.curFile = f
	w.curPeaks = 0
	w.partIndex++
	return nil
}

func (w *RollingWriter) finishCurrent() error {
	if w.cur == nil {
		return nil
	}
	stats, err := w.cur.Close()
	closeErr := w.curFile.Close()
	w.cur = nil
	w.curFile = nil
	if err != nil {
		return err
	}
	if closeErr != nil {
		return mzerr.Wrap(mzerr.KindIO, "close part file", closeErr)
	}
	w.parts = append(w.parts, stats)
	w.totalRows += stats.Rows
	return nil
}

// WriteSpectra flattens spectra into the v1 long layout and writes them,
// rotating to a new part file first if the current one would otherwise
// exceed MaxPeaksPerFile.
func (w *RollingWriter) WriteSpectra(spectra []*ingest.IngestSpectrum) error {
	if w.closed {
		return mzerr.ErrAlreadyClosed
	}
	max := w.MaxPeaksPerFile
	if max <= 0 {
		max = DefaultMaxPeaksPerFile
	}

	peaks := 0
	for _, s := range spectra {
		peaks += s.Peaks.Len()
	}
	if w.cur == nil {
		if err := w.openNextPart(); err != nil {
			return err
		}
	} else if w.curPeaks > 0 && w.curPeaks+peaks > max {
		if err := w.openNextPart(); err != nil {
			return err
		}
	}

	batch := FlattenLong(nil, spectra)
	rec := batch.ToRecord(nil)
	if err := w.cur.WriteRecord(rec); err != nil {
		return err
	}
	w.curPeaks += peaks
	w.totalPeaks += peaks
	return nil
}

// RollingStats summarises every part file written so far.
type RollingStats struct {
	PartFiles  int
	TotalRows  int64
	TotalPeaks int
}

// Close finalises the currently open part file (if any) and returns
// aggregate stats. It is not idempotent: a second call returns
// mzerr.ErrAlreadyClosed.
func (w *RollingWriter) Close() (RollingStats, error) {
	if w.closed {
		return RollingStats{}, mzerr.ErrAlreadyClosed
	}
	w.closed = true
	if err := w.finishCurrent(); err != nil {
		return RollingStats{}, err
	}
	return RollingStats{PartFiles: len(w.parts), TotalRows: w.totalRows, TotalPeaks: w.totalPeaks}, nil
}
