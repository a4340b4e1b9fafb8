// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import "bytes"

// memSink adapts a bytes.Buffer to io.WriteCloser so a Parquet TableWriter
// can target it directly; Close is a no-op. Used for the container
// layout's in-memory buffering strategy (§4.5): the writer streams into
// memSink, then the packager reads Bytes() to learn the entry's
// uncompressed size before appending it to the archive.
type memSink struct {
	*bytes.Buffer
}

func newMemSink() *memSink { return &memSink{Buffer: &bytes.Buffer{}} }

func (m *memSink) Close() error { return nil }
