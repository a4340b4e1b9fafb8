// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/parquet"

	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/writer"
)

// writeTableFile opens path and writes one single-record Parquet table to
// it using sc/props, closing the file on every return path.
func writeTableFile(path string, sc *arrow.Schema, props *parquet.WriterProperties, rec arrow.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return mzerr.Wrap(mzerr.KindIO, "create "+path, err)
	}
	defer f.Close()
	return writeTableSink(f, sc, props, rec)
}

// writeTableSink writes one single-record Parquet table to an arbitrary
// io.WriteCloser (a file, or an in-memory buffer for container mode).
func writeTableSink(sink io.WriteCloser, sc *arrow.Schema, props *parquet.WriterProperties, rec arrow.Record) error {
	tw, err := writer.NewTableWriter(sc, sink, props)
	if err != nil {
		return err
	}
	if err := tw.WriteRecord(rec); err != nil {
		return err
	}
	_, err = tw.Close()
	return err
}
