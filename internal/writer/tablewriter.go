// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// TableStats summarises one Parquet table's accumulated output.
type TableStats struct {
	Rows      int64
	RowGroups int
}

// TableWriter drives one Arrow schema's worth of records into one Parquet
// file, buffering across row-group boundaries according to the schema's
// writer properties (§4.1: row-group size is the library's flush
// threshold, not ours to re-implement).
type TableWriter struct {
	fw    *pqarrow.FileWriter
	rows  int64
	sink  io.Writer
	props *parquet.WriterProperties
}

// NewTableWriter opens a Parquet table writer for schema over sink.
func NewTableWriter(schema *arrow.Schema, sink io.WriteCloser, props *parquet.WriterProperties) (*TableWriter, error) {
	arrProps := pqarrow.DefaultWriterProps()
	fw, err := pqarrow.NewFileWriter(schema, sink, props, arrProps)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindIO, "open parquet table writer", err)
	}
	return &TableWriter{fw: fw, props: props}, nil
}

// WriteRecord appends rec, buffering internally and flushing a row group
// once the configured row-group length is reached.
func (w *TableWriter) WriteRecord(rec arrow.Record) error {
	defer rec.Release()
	if err := w.fw.WriteBuffered(rec); err != nil {
		return mzerr.Wrap(mzerr.KindIO, "write parquet record batch", err)
	}
	w.rows += rec.NumRows()
	return nil
}

// Close flushes any buffered rows, finalises the file footer, and returns
// accumulated stats.
func (w *TableWriter) Close() (TableStats, error) {
	if err := w.fw.Close(); err != nil {
		return TableStats{}, mzerr.Wrap(mzerr.KindIO, "close parquet table writer", err)
	}
	return TableStats{Rows: w.rows, RowGroups: int(w.fw.NumRowGroups())}, nil
}
