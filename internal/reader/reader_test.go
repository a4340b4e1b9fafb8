// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"io"
	"os"
	"testing"
)

func TestWindowReaderReadAt(t *testing.T) {
	full := []byte("xxxxHELLO WORLDxxxx")
	e := zipEntry{offset: 4, size: 11}
	w := newWindowReader(full, e)

	buf := make([]byte, 5)
	n, err := w.ReadAt(buf, 0)
	if err != nil || n != 5 || string(buf) != "HELLO" {
		t.Fatalf("ReadAt(0) = %q, %d, %v", buf, n, err)
	}

	n, err = w.ReadAt(buf, 6)
	if err != nil || n != 5 || string(buf) != "WORLD" {
		t.Fatalf("ReadAt(6) = %q, %d, %v", buf, n, err)
	}
}

func TestWindowReaderSeekAndRead(t *testing.T) {
	full := []byte("----PAYLOAD----")
	e := zipEntry{offset: 4, size: 7}
	w := newWindowReader(full, e)

	if _, err := w.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	buf := make([]byte, 4)
	n, err := w.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "OAD" {
		t.Fatalf("Read after seek = %q, want prefix OAD", buf[:n])
	}
}

func TestWindowReaderEOFPastEnd(t *testing.T) {
	full := []byte("ABCDEFGH")
	w := newWindowReader(full, zipEntry{offset: 0, size: 4})
	buf := make([]byte, 4)
	n, err := w.ReadAt(buf, 4)
	if n != 0 || err != io.EOF {
		t.Fatalf("ReadAt past end = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestLayoutString(t *testing.T) {
	cases := map[Layout]string{
		LayoutDirectory: "directory",
		LayoutContainer: "container",
		LayoutBareFile:  "bare-file",
	}
	for layout, want := range cases {
		if got := layout.String(); got != want {
			t.Errorf("Layout(%d).String() = %q, want %q", layout, got, want)
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		in   interface{}
		want int64
		ok   bool
	}{
		{int64(42), 42, true},
		{uint32(7), 7, true},
		{int32(-3), -3, true},
		{uint64(100), 100, true},
		{"nope", 0, false},
		{3.14, 0, false},
	}
	for _, c := range cases {
		got, ok := toInt64(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("toInt64(%v) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestOpenUnrecognisedFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/not-a-dataset.bin"
	if err := os.WriteFile(path, []byte("not a zip or parquet file"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("Open of an unrecognised file layout should fail")
	}
}
