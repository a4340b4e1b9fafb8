// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// Entry names for the mandatory tables, shared across the directory and
// container layouts (§4.5, §6).
const (
	peaksEntry   = "peaks/peaks.parquet"
	spectraEntry = "spectra/spectra.parquet"
)

// source opens name's bytes as a random-access reader appropriate to d's
// layout: a plain *os.File for a directory bundle, a windowed view into
// the memory-mapped archive for a container entry, or the whole mapped
// file for a bare Parquet file (name is then ignored).
func (d *Dataset) source(name string) (parquet.ReaderAtSeeker, func() error, error) {
	switch d.Layout {
	case LayoutDirectory:
		f, err := os.Open(filepath.Join(d.root, name))
		if err != nil {
			return nil, nil, mzerr.Wrap(mzerr.KindIO, "open "+name, err)
		}
		return f, f.Close, nil
	case LayoutContainer:
		e, ok := d.entries[name]
		if !ok {
			return nil, nil, mzerr.New(mzerr.KindArchive, "missing container entry "+name)
		}
		if e.method != 0 { // 0 == zip.Store
			return nil, nil, mzerr.New(mzerr.KindArchive, name+" is not stored uncompressed")
		}
		return newWindowReader(d.data, e), func() error { return nil }, nil
	default: // LayoutBareFile
		return newWindowReader(d.data, zipEntry{offset: 0, size: int64(len(d.data))}), func() error { return nil }, nil
	}
}

// tableReader bundles the low-level Parquet reader (for row-group
// metadata/statistics) and the Arrow-level reader (for record batches)
// over the same table, plus the close func for its backing source.
type tableReader struct {
	pf    *file.Reader
	arrow *pqarrow.FileReader
	close func() error
}

func (d *Dataset) openTable(name string) (*tableReader, error) {
	src, closeSrc, err := d.source(name)
	if err != nil {
		return nil, err
	}
	pf, err := file.NewParquetReader(src)
	if err != nil {
		closeSrc()
		return nil, mzerr.Wrap(mzerr.KindColumnar, "open parquet table "+name, err)
	}
	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		pf.Close()
		closeSrc()
		return nil, mzerr.Wrap(mzerr.KindColumnar, "open arrow reader "+name, err)
	}
	return &tableReader{pf: pf, arrow: fr, close: func() error {
		err1 := pf.Close()
		err2 := closeSrc()
		if err1 != nil {
			return mzerr.Wrap(mzerr.KindColumnar, "close parquet table "+name, err1)
		}
		if err2 != nil {
			return mzerr.Wrap(mzerr.KindIO, "close source "+name, err2)
		}
		return nil
	}}, nil
}

// Close releases the table's Parquet reader and backing source.
func (t *tableReader) Close() error { return t.close() }

// BatchIterator is a lazy, finite, forward-only sequence of Arrow record
// batches over one table. It is not restartable (§4.6); reopen the
// Dataset to scan again.
type BatchIterator struct {
	rr    pqarrow.RecordReader
	table *tableReader
}

func newBatchIterator(ctx context.Context, t *tableReader, rowGroups []int) (*BatchIterator, error) {
	rr, err := t.arrow.GetRecordReader(ctx, nil, rowGroups)
	if err != nil {
		t.Close()
		return nil, mzerr.Wrap(mzerr.KindColumnar, "get record reader", err)
	}
	return &BatchIterator{rr: rr, table: t}, nil
}

// Next advances to the next batch, returning false at end of stream or on
// error (callers should check Err after Next returns false).
func (it *BatchIterator) Next() bool { return it.rr.Next() }

// Record returns the current batch. Valid only after a Next call that
// returned true.
func (it *BatchIterator) Record() arrow.Record { return it.rr.Record() }

// Err returns the first error encountered while iterating, if any.
func (it *BatchIterator) Err() error { return it.rr.Err() }

// Close releases the record reader and the underlying table/source.
func (it *BatchIterator) Close() error {
	it.rr.Release()
	return it.table.Close()
}

// IterateLong returns a lazy sequence of batches over the full v1 long
// table.
func (d *Dataset) IterateLong(ctx context.Context) (*BatchIterator, error) {
	t, err := d.openTable(peaksEntry)
	if err != nil {
		return nil, err
	}
	return newBatchIterator(ctx, t, nil)
}

// IterateSpectra returns a lazy sequence of batches over the full v2
// spectra table.
func (d *Dataset) IterateSpectra(ctx context.Context) (*BatchIterator, error) {
	t, err := d.openTable(spectraEntry)
	if err != nil {
		return nil, err
	}
	return newBatchIterator(ctx, t, nil)
}

// IteratePeaks returns a lazy sequence of batches over the full v2 peaks
// table.
func (d *Dataset) IteratePeaks(ctx context.Context) (*BatchIterator, error) {
	t, err := d.openTable(peaksEntry)
	if err != nil {
		return nil, err
	}
	return newBatchIterator(ctx, t, nil)
}

// NumRowGroups returns name's row-group count without reading any data.
func (d *Dataset) NumRowGroups(name string) (int, error) {
	t, err := d.openTable(name)
	if err != nil {
		return 0, err
	}
	defer t.Close()
	return t.pf.NumRowGroups(), nil
}

// FooterKV returns name's Parquet file-footer key/value metadata
// dictionary (§6): the mzpeak:* keys written alongside the footer, not the
// per-column Arrow field metadata.
func (d *Dataset) FooterKV(name string) (map[string]string, error) {
	t, err := d.openTable(name)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	kv := t.pf.MetaData().KeyValueMetadata()
	if kv == nil {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(kv.Keys()))
	for i, k := range kv.Keys() {
		out[k] = kv.Values()[i]
	}
	return out, nil
}

// TableSchema returns name's Arrow schema, including each field's
// cv_accession metadata, for comparison against the declared column
// definitions (§4.1, §4.7).
func (d *Dataset) TableSchema(name string) (*arrow.Schema, error) {
	t, err := d.openTable(name)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return t.arrow.Schema()
}

// HasIonMobility reports whether the peaks table carries an ion_mobility
// column: the manifest's flag for v2, and always true for v1, whose long
// schema always declares the column.
func (d *Dataset) HasIonMobility() bool {
	if d.Manifest != nil {
		return d.Manifest.HasIonMobility
	}
	return true // v1 always declares the column (possibly all-null)
}
