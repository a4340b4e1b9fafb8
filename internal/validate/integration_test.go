// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package validate

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saferwall/mzpeak/internal/dataset"
	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/schema"
)

func buildValidV1Container(t *testing.T) string {
	t.Helper()
	spec := &ingest.IngestSpectrum{
		SpectrumID:    0,
		ScanNumber:    1,
		MSLevel:       1,
		RetentionTime: 60.0,
		Polarity:      1,
		Peaks: ingest.Peaks{
			MZ:        []float64{400.0, 500.0},
			Intensity: []float32{10000, 20000},
		},
	}
	conv := ingest.NewConverter(ingest.Modality{})
	if err := conv.Convert(spec); err != nil {
		t.Fatalf("Convert: %v", err)
	}

	meta := dataset.Metadata{
		FormatVersion:       schema.FormatVersionV1,
		ConversionTimestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ConverterInfo:       "mzpeak-test/1.0",
	}
	p := dataset.NewPackagerV1(schema.DefaultEncodingPolicy(), meta)
	if err := p.WriteSpectra([]*ingest.IngestSpectrum{spec}); err != nil {
		t.Fatalf("WriteSpectra: %v", err)
	}
	out := filepath.Join(t.TempDir(), "run.mzpeak")
	if _, err := p.Close(out, dataset.LayoutContainer); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return out
}

// recompressEntry rewrites src into dst, re-encoding the named entry with
// method instead of whatever method it originally carried, leaving every
// other entry's bytes and method untouched.
func recompressEntry(t *testing.T, src, dst, name string, method uint16) {
	t.Helper()
	zr, err := zip.OpenReader(src)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer zr.Close()

	f, err := os.Create(dst)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	for _, e := range zr.File {
		rc, err := e.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", e.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", e.Name, err)
		}
		m := e.Method
		if e.Name == name {
			m = method
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: m})
		if err != nil {
			t.Fatalf("CreateHeader %s: %v", e.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
}

// TestRunValidV1Container exercises the validator's happy path against a
// freshly-written, well-formed container: no failures.
func TestRunValidV1Container(t *testing.T) {
	path := buildValidV1Container(t)
	report, err := Run(context.Background(), path)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed() {
		t.Fatalf("Run on a valid container reported failures: %+v", report.Checks)
	}
}

// TestRunDeflatedPeaksFails is spec.md §8 scenario 6: an archive whose
// peaks/peaks.parquet has been re-compressed with Deflate must produce a
// validator report containing the failure "peaks.parquet compression" and
// Failed() must report true.
func TestRunDeflatedPeaksFails(t *testing.T) {
	good := buildValidV1Container(t)
	bad := filepath.Join(t.TempDir(), "broken.mzpeak")
	recompressEntry(t, good, bad, "peaks/peaks.parquet", zip.Deflate)

	report, err := Run(context.Background(), bad)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Failed() {
		t.Fatalf("Run on a Deflate-recompressed peaks.parquet should fail")
	}
	found := false
	for _, c := range report.Checks {
		if c.Name == "peaks.parquet compression" && c.Status == StatusFailure {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a failed %q check, got %+v", "peaks.parquet compression", report.Checks)
	}
}

// TestRunWrongFirstEntryFails is spec.md §8's "ZIP entry order violation"
// boundary case: reader.Open itself must reject a container whose first
// entry is not the stored mimetype.
func TestRunWrongFirstEntryFails(t *testing.T) {
	good := buildValidV1Container(t)

	// Write every entry back in reverse order so mimetype is no longer first.
	zr, err := zip.OpenReader(good)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer zr.Close()
	reordered := filepath.Join(t.TempDir(), "reordered2.mzpeak")
	f, err := os.Create(reordered)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	zw := zip.NewWriter(f)
	// Write entries in reverse order so mimetype is no longer first.
	for i := len(zr.File) - 1; i >= 0; i-- {
		e := zr.File[i]
		rc, err := e.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", e.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", e.Name, err)
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: e.Method})
		if err != nil {
			t.Fatalf("CreateHeader %s: %v", e.Name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	f.Close()

	if _, err := Run(context.Background(), reordered); err == nil {
		t.Fatalf("Run on a container whose first entry is not mimetype should fail to open")
	}
}
