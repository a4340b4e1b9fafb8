// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import (
	"archive/zip"
	"bytes"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// containerBuilder assembles the ZIP-like container entry by entry,
// enforcing the strict order and compression-method contract from §4.5:
// mimetype first and stored, manifest.json/metadata.json Deflated, every
// columnar Parquet entry stored uncompressed for seekability.
type containerBuilder struct {
	zw  *zip.Writer
	buf *bytes.Buffer
}

func newContainerBuilder() *containerBuilder {
	buf := &bytes.Buffer{}
	return &containerBuilder{zw: zip.NewWriter(buf), buf: buf}
}

func (c *containerBuilder) writeEntry(name string, method uint16, data []byte) error {
	hdr := &zip.FileHeader{Name: name, Method: method}
	w, err := c.zw.CreateHeader(hdr)
	if err != nil {
		return mzerr.Wrap(mzerr.KindArchive, "create entry "+name, err)
	}
	if _, err := w.Write(data); err != nil {
		return mzerr.Wrap(mzerr.KindArchive, "write entry "+name, err)
	}
	return nil
}

// writeMimetype writes the mandatory first entry: stored, uncompressed.
func (c *containerBuilder) writeMimetype(mimetype string) error {
	return c.writeEntry("mimetype", zip.Store, []byte(mimetype))
}

// writeJSON writes a Deflate-compressed JSON entry (manifest.json or
// metadata.json).
func (c *containerBuilder) writeJSON(name string, data []byte) error {
	return c.writeEntry(name, zip.Deflate, data)
}

// writeStoredParquet writes a Parquet entry uncompressed so its internal
// byte ranges remain directly seekable once the archive is opened.
func (c *containerBuilder) writeStoredParquet(name string, data []byte) error {
	return c.writeEntry(name, zip.Store, data)
}

// finish closes the underlying zip.Writer and returns the complete
// archive bytes.
func (c *containerBuilder) finish() ([]byte, error) {
	if err := c.zw.Close(); err != nil {
		return nil, mzerr.Wrap(mzerr.KindArchive, "finalise container", err)
	}
	return c.buf.Bytes(), nil
}
