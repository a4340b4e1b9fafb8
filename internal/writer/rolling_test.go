// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/schema"
)

func spectrumWithPeaks(id int64, n int) *ingest.IngestSpectrum {
	mz := make([]float64, n)
	intensity := make([]float32, n)
	for i := 0; i < n; i++ {
		mz[i] = float64(100 + i)
		intensity[i] = float32(i + 1)
	}
	tic := float64(n)
	return &ingest.IngestSpectrum{
		SpectrumID: id, ScanNumber: id + 1, MSLevel: 1, RetentionTime: float32(id), Polarity: 1,
		Peaks:           ingest.Peaks{MZ: mz, Intensity: intensity},
		TotalIonCurrent: &tic,
	}
}

func TestRollingWriterRotatesOnPeakThreshold(t *testing.T) {
	dir, err := os.MkdirTemp("", "mzpeak-rolling-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w := NewRollingWriter(dir, schema.FastWritePolicy(), nil)
	w.MaxPeaksPerFile = 3

	if err := w.WriteSpectra([]*ingest.IngestSpectrum{spectrumWithPeaks(0, 2)}); err != nil {
		t.Fatalf("WriteSpectra #1: %v", err)
	}
	if err := w.WriteSpectra([]*ingest.IngestSpectrum{spectrumWithPeaks(1, 2)}); err != nil {
		t.Fatalf("WriteSpectra #2: %v", err)
	}

	stats, err := w.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if stats.PartFiles != 2 {
		t.Fatalf("PartFiles = %d, want 2 (2+2 peaks with a threshold of 3 must rotate)", stats.PartFiles)
	}
	if stats.TotalPeaks != 4 {
		t.Fatalf("TotalPeaks = %d, want 4", stats.TotalPeaks)
	}

	for i := 0; i < stats.PartFiles; i++ {
		if _, err := os.Stat(partFileName(dir, i)); err != nil {
			t.Errorf("part file %d missing: %v", i, err)
		}
	}
}

func TestRollingWriterCloseNotIdempotent(t *testing.T) {
	dir, err := os.MkdirTemp("", "mzpeak-rolling-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	w := NewRollingWriter(dir, schema.FastWritePolicy(), nil)
	if err := w.WriteSpectra([]*ingest.IngestSpectrum{spectrumWithPeaks(0, 1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if _, err := w.Close(); err == nil {
		t.Fatal("second Close succeeded, want mzerr.ErrAlreadyClosed")
	}
}

func TestPartFileNaming(t *testing.T) {
	got := partFileName("/x", 3)
	want := filepath.Join("/x", "part-00003.parquet")
	if got != want {
		t.Errorf("partFileName = %q, want %q", got, want)
	}
}
