// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package reader implements the dataset reader (C6): symmetric to the
// packager (C5), it detects which of the three recognised layouts a path
// is (a directory bundle, a seekable ZIP-like container, or a bare
// columnar file), resolves byte ranges inside the container the way the
// teacher's File.New memory-maps a PE image for random access, and
// exposes the v1/v2 query APIs described in §4.6.
package reader

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/saferwall/mzpeak/internal/dataset"
	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/schema"
)

// Layout identifies which of the three on-disk shapes a dataset path is.
type Layout int

const (
	// LayoutDirectory is the legacy directory bundle.
	LayoutDirectory Layout = iota
	// LayoutContainer is the default seekable ZIP-like archive.
	LayoutContainer
	// LayoutBareFile is a single v1 long-table Parquet file with no
	// container or sidecar metadata.json around it.
	LayoutBareFile
)

func (l Layout) String() string {
	switch l {
	case LayoutDirectory:
		return "directory"
	case LayoutContainer:
		return "container"
	default:
		return "bare-file"
	}
}

// zipEntry records where one container entry's bytes live within the
// memory-mapped archive, and whether they are stored (uncompressed).
type zipEntry struct {
	offset int64
	size   int64
	method uint16
}

// Dataset is an opened mzPeak archive, read-only. Each table query opens
// a fresh reader over the table, so a table can be read more than once
// without reopening the dataset.
type Dataset struct {
	Layout  Layout
	Version int // 1 or 2

	root    string // set for LayoutDirectory
	f       *os.File
	data    mmap.MMap // set for LayoutContainer/LayoutBareFile
	entries map[string]zipEntry

	Manifest *dataset.Manifest // nil for v1
	Metadata *dataset.Metadata
}

// Open detects path's layout and returns a Dataset ready for querying.
func Open(path string) (*Dataset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindIO, "stat "+path, err)
	}
	if fi.IsDir() {
		return openDirectory(path)
	}
	return openFile(path)
}

func openDirectory(root string) (*Dataset, error) {
	d := &Dataset{Layout: LayoutDirectory, Version: 1, root: root}

	if mb, err := os.ReadFile(filepath.Join(root, "manifest.json")); err == nil {
		var m dataset.Manifest
		if err := json.Unmarshal(mb, &m); err != nil {
			return nil, mzerr.Wrap(mzerr.KindMetadata, "parse manifest.json", err)
		}
		d.Manifest = &m
		d.Version = 2
	} else if !os.IsNotExist(err) {
		return nil, mzerr.Wrap(mzerr.KindIO, "read manifest.json", err)
	}

	if metaBytes, err := os.ReadFile(filepath.Join(root, "metadata.json")); err == nil {
		var md dataset.Metadata
		if err := json.Unmarshal(metaBytes, &md); err != nil {
			return nil, mzerr.Wrap(mzerr.KindMetadata, "parse metadata.json", err)
		}
		d.Metadata = &md
	} else if !os.IsNotExist(err) {
		return nil, mzerr.Wrap(mzerr.KindIO, "read metadata.json", err)
	}

	return d, nil
}

// parquetMagic is the 4-byte "PAR1" footer/header magic of a bare Parquet
// file, checked only to distinguish it from a ZIP-like container.
var parquetMagic = []byte("PAR1")

func openFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindIO, "open "+path, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, mzerr.Wrap(mzerr.KindIO, "mmap "+path, err)
	}

	d := &Dataset{f: f, data: data}
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04")):
		d.Layout = LayoutContainer
		if err := d.indexContainer(); err != nil {
			d.Close()
			return nil, err
		}
	case len(data) >= 4 && bytes.Equal(data[:4], parquetMagic):
		d.Layout = LayoutBareFile
		d.Version = 1
	default:
		d.Close()
		return nil, mzerr.New(mzerr.KindArchive, "unrecognised file layout: not a ZIP container or a Parquet file")
	}
	return d, nil
}

// indexContainer parses the ZIP central directory and resolves each
// entry's byte range within the memory-mapped archive, validating the
// mandatory entry-order/compression contract of §4.5 as it goes.
func (d *Dataset) indexContainer() error {
	zr, err := zip.NewReader(bytes.NewReader(d.data), int64(len(d.data)))
	if err != nil {
		return mzerr.Wrap(mzerr.KindArchive, "open container central directory", err)
	}
	if len(zr.File) == 0 {
		return mzerr.New(mzerr.KindArchive, "container has no entries")
	}
	if zr.File[0].Name != "mimetype" || zr.File[0].Method != zip.Store {
		return mzerr.New(mzerr.KindArchive, "first container entry must be stored \"mimetype\"")
	}

	d.entries = make(map[string]zipEntry, len(zr.File))
	for _, f := range zr.File {
		off, err := f.DataOffset()
		if err != nil {
			return mzerr.Wrap(mzerr.KindArchive, "locate entry "+f.Name, err)
		}
		d.entries[f.Name] = zipEntry{offset: off, size: int64(f.UncompressedSize64), method: f.Method}
	}

	mt, ok := d.entries["mimetype"]
	if !ok {
		return mzerr.New(mzerr.KindArchive, "container missing mimetype entry")
	}
	body := string(d.data[mt.offset : mt.offset+mt.size])
	switch body {
	case schema.MimeTypeV1:
		d.Version = 1
	case schema.MimeTypeV2:
		d.Version = 2
	default:
		return mzerr.New(mzerr.KindArchive, "unrecognised mimetype "+body)
	}

	if d.Version == 2 {
		if e, ok := d.entries["manifest.json"]; ok {
			var m dataset.Manifest
			if err := json.Unmarshal(d.entryBytes(e), &m); err != nil {
				return mzerr.Wrap(mzerr.KindMetadata, "parse manifest.json", err)
			}
			d.Manifest = &m
		} else {
			return mzerr.New(mzerr.KindArchive, "v2 container missing manifest.json")
		}
	}
	if e, ok := d.entries["metadata.json"]; ok {
		var md dataset.Metadata
		if err := json.Unmarshal(d.entryBytes(e), &md); err != nil {
			return mzerr.Wrap(mzerr.KindMetadata, "parse metadata.json", err)
		}
		d.Metadata = &md
	}
	return nil
}

func (d *Dataset) entryBytes(e zipEntry) []byte {
	return d.data[e.offset : e.offset+e.size]
}

// HasEntry reports whether name exists in the container's (or directory's)
// layout, without opening it.
func (d *Dataset) HasEntry(name string) bool {
	switch d.Layout {
	case LayoutContainer:
		_, ok := d.entries[name]
		return ok
	case LayoutDirectory:
		_, err := os.Stat(filepath.Join(d.root, name))
		return err == nil
	default:
		return true
	}
}

// EntryStored reports whether name is present and, for container layouts,
// whether it is stored uncompressed. ok is false if name does not exist;
// directory and bare-file layouts have no compression notion of their own,
// so a present entry always reports stored=true there.
func (d *Dataset) EntryStored(name string) (stored bool, ok bool) {
	switch d.Layout {
	case LayoutContainer:
		e, found := d.entries[name]
		if !found {
			return false, false
		}
		return e.method == zip.Store, true
	default:
		return true, d.HasEntry(name)
	}
}

// Close releases the dataset's underlying file handle and/or mapping.
func (d *Dataset) Close() error {
	var err error
	if d.data != nil {
		if uerr := d.data.Unmap(); uerr != nil {
			err = uerr
		}
	}
	if d.f != nil {
		if cerr := d.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return mzerr.Wrap(mzerr.KindIO, "close dataset", err)
	}
	return nil
}

// windowReader adapts a byte-range window of a larger in-memory buffer to
// io.ReaderAt/io.ReadSeeker, so the Parquet reader can perform random-access
// reads inside one container entry using offsets relative to the entry's
// own start (§4.6, "a chunk reader ... serves a window for the columnar
// file's byte range").
type windowReader struct {
	data []byte
	pos  int64
}

func newWindowReader(full []byte, e zipEntry) *windowReader {
	return &windowReader{data: full[e.offset : e.offset+e.size]}
}

func (w *windowReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(w.data)) {
		return 0, io.EOF
	}
	n := copy(p, w.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (w *windowReader) Read(p []byte) (int, error) {
	n, err := w.ReadAt(p, w.pos)
	w.pos += int64(n)
	return n, err
}

func (w *windowReader) Seek(offset int64, whence int) (int64, error) {
	var np int64
	switch whence {
	case io.SeekStart:
		np = offset
	case io.SeekCurrent:
		np = w.pos + offset
	case io.SeekEnd:
		np = int64(len(w.data)) + offset
	}
	if np < 0 {
		return 0, mzerr.New(mzerr.KindIO, "negative seek position")
	}
	w.pos = np
	return np, nil
}
