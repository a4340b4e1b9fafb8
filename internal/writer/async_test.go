// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"os"
	"testing"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/schema"
)

func TestAsyncWriterWritesThroughToRollingWriter(t *testing.T) {
	dir, err := os.MkdirTemp("", "mzpeak-async-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	inner := NewRollingWriter(dir, schema.FastWritePolicy(), nil)
	aw := NewAsyncWriter(inner, 2)

	for i := 0; i < 5; i++ {
		if err := aw.WriteSpectra([]*ingest.IngestSpectrum{spectrumWithPeaks(int64(i), 1)}); err != nil {
			t.Fatalf("WriteSpectra #%d: %v", i, err)
		}
	}

	stats, err := aw.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stats.TotalPeaks != 5 {
		t.Fatalf("TotalPeaks = %d, want 5", stats.TotalPeaks)
	}
}

func TestAsyncWriterCloseNotIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "mzpeak-async-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	aw := NewAsyncWriter(NewRollingWriter(dir, schema.FastWritePolicy(), nil), 1)
	if _, err := aw.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if _, err := aw.Close(); err == nil {
		t.Fatal("second Close succeeded, want mzerr.ErrAlreadyClosed")
	}
}

func TestAsyncWriterLatchesErrorAfterClose(t *testing.T) {
	dir, err := os.MkdirTemp("", "mzpeak-async-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	aw := NewAsyncWriter(NewRollingWriter(dir, schema.FastWritePolicy(), nil), 1)
	if _, err := aw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := aw.WriteSpectra([]*ingest.IngestSpectrum{spectrumWithPeaks(0, 1)}); err == nil {
		t.Fatal("WriteSpectra after Close succeeded, want an error")
	}
}
