// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import (
	"os"
	"path/filepath"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/schema"
	"github.com/saferwall/mzpeak/internal/writer"
)

// Layout selects the dataset packager's output shape (§4.5).
type Layout int

const (
	// LayoutContainer is the default: a single seekable ZIP-like archive.
	LayoutContainer Layout = iota
	// LayoutDirectory is the legacy layout: a plain directory of files.
	LayoutDirectory
)

// Stats summarises one packaged dataset.
type Stats struct {
	SpectrumCount int64
	PeakCount     int64
}

// PackagerV1 accumulates spectra into the v1 long-table schema and emits
// either a directory bundle or a container archive on Close.
type PackagerV1 struct {
	policy schema.EncodingPolicy
	meta   Metadata

	long          *writer.LongBatch
	spectrumCount int64

	Chromatograms []Chromatogram
	Mobilograms   []Mobilogram
}

// NewPackagerV1 returns a packager with no rows written yet.
func NewPackagerV1(policy schema.EncodingPolicy, meta Metadata) *PackagerV1 {
	return &PackagerV1{policy: policy, meta: meta}
}

// WriteSpectra flattens spectra into the packager's accumulating batch.
func (p *PackagerV1) WriteSpectra(spectra []*ingest.IngestSpectrum) error {
	p.long = writer.FlattenLong(p.long, spectra)
	p.spectrumCount += int64(len(spectra))
	return nil
}

func (p *PackagerV1) stats() Stats {
	rows := int64(0)
	if p.long != nil {
		rows = int64(p.long.Rows())
	}
	return Stats{SpectrumCount: p.spectrumCount, PeakCount: rows}
}

// Close writes the accumulated dataset to dest according to layout: a
// directory path for LayoutDirectory, or an archive file path for
// LayoutContainer.
func (p *PackagerV1) Close(dest string, layout Layout) (Stats, error) {
	if p.long == nil {
		p.long = &writer.LongBatch{}
	}
	switch layout {
	case LayoutDirectory:
		return p.writeDirectory(dest)
	default:
		return p.writeContainer(dest)
	}
}

func (p *PackagerV1) writeDirectory(root string) (Stats, error) {
	if _, err := os.Stat(root); err == nil {
		return Stats{}, mzerr.ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Join(root, "peaks"), 0o755); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "create peaks directory", err)
	}

	kv := p.meta.FooterKV()
	props := schema.BuildWriterProperties(p.policy, kv)
	sc := schema.LongTableSchema(nil)

	f, err := os.Create(filepath.Join(root, "peaks", "peaks.parquet"))
	if err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "create peaks.parquet", err)
	}
	tw, err := writer.NewTableWriter(sc, f, props)
	if err != nil {
		f.Close()
		return Stats{}, err
	}
	if err := tw.WriteRecord(p.long.ToRecord(nil)); err != nil {
		f.Close()
		return Stats{}, err
	}
	if _, err := tw.Close(); err != nil {
		f.Close()
		return Stats{}, err
	}
	if err := f.Close(); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "close peaks.parquet", err)
	}

	if len(p.Chromatograms) > 0 {
		if err := os.MkdirAll(filepath.Join(root, "chromatograms"), 0o755); err != nil {
			return Stats{}, mzerr.Wrap(mzerr.KindIO, "create chromatograms directory", err)
		}
		if err := writeTableFile(filepath.Join(root, "chromatograms", "chromatograms.parquet"),
			arrowSchemaOf(schema.ChromatogramFields()), props, ChromatogramsRecord(p.Chromatograms)); err != nil {
			return Stats{}, err
		}
	}
	if len(p.Mobilograms) > 0 {
		if err := os.MkdirAll(filepath.Join(root, "mobilograms"), 0o755); err != nil {
			return Stats{}, mzerr.Wrap(mzerr.KindIO, "create mobilograms directory", err)
		}
		if err := writeTableFile(filepath.Join(root, "mobilograms", "mobilograms.parquet"),
			arrowSchemaOf(schema.MobilogramFields()), props, MobilogramsRecord(p.Mobilograms)); err != nil {
			return Stats{}, err
		}
	}

	if err := p.meta.WriteFile(filepath.Join(root, "metadata.json")); err != nil {
		return Stats{}, err
	}
	return p.stats(), nil
}

func (p *PackagerV1) writeContainer(path string) (Stats, error) {
	if _, err := os.Stat(path); err == nil {
		return Stats{}, mzerr.ErrAlreadyExists
	}

	kv := p.meta.FooterKV()
	props := schema.BuildWriterProperties(p.policy, kv)
	sc := schema.LongTableSchema(nil)

	sink := newMemSink()
	tw, err := writer.NewTableWriter(sc, sink, props)
	if err != nil {
		return Stats{}, err
	}
	if err := tw.WriteRecord(p.long.ToRecord(nil)); err != nil {
		return Stats{}, err
	}
	if _, err := tw.Close(); err != nil {
		return Stats{}, err
	}

	metaJSON, err := p.meta.ToJSON()
	if err != nil {
		return Stats{}, err
	}

	cb := newContainerBuilder()
	if err := cb.writeMimetype(schema.MimeTypeV1); err != nil {
		return Stats{}, err
	}
	if err := cb.writeJSON("metadata.json", metaJSON); err != nil {
		return Stats{}, err
	}
	if err := cb.writeStoredParquet("peaks/peaks.parquet", sink.Bytes()); err != nil {
		return Stats{}, err
	}
	if len(p.Chromatograms) > 0 {
		chromSink := newMemSink()
		if err := writeTableSink(chromSink, arrowSchemaOf(schema.ChromatogramFields()), props, ChromatogramsRecord(p.Chromatograms)); err != nil {
			return Stats{}, err
		}
		if err := cb.writeStoredParquet("chromatograms/chromatograms.parquet", chromSink.Bytes()); err != nil {
			return Stats{}, err
		}
	}
	if len(p.Mobilograms) > 0 {
		mobSink := newMemSink()
		if err := writeTableSink(mobSink, arrowSchemaOf(schema.MobilogramFields()), props, MobilogramsRecord(p.Mobilograms)); err != nil {
			return Stats{}, err
		}
		if err := cb.writeStoredParquet("mobilograms/mobilograms.parquet", mobSink.Bytes()); err != nil {
			return Stats{}, err
		}
	}
	archive, err := cb.finish()
	if err != nil {
		return Stats{}, err
	}
	if err := os.WriteFile(path, archive, 0o644); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "write container "+path, err)
	}
	return p.stats(), nil
}
