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

// PackagerV2 accumulates spectra into the v2 normalised spectra+peaks
// schema and emits either a directory bundle or a container archive.
type PackagerV2 struct {
	policy   schema.EncodingPolicy
	meta     Metadata
	modality schema.Modality
	converter string

	spectra       []*ingest.IngestSpectrum
	spectrumCount int64
	peakCount     int64
	hasPrecursor  bool

	Chromatograms []Chromatogram
	Mobilograms   []Mobilogram
}

// NewPackagerV2 returns a packager with no rows written yet.
func NewPackagerV2(policy schema.EncodingPolicy, meta Metadata, modality schema.Modality, converterInfo string) *PackagerV2 {
	return &PackagerV2{policy: policy, meta: meta, modality: modality, converter: converterInfo}
}

// WriteSpectra buffers spectra for flattening at Close. The v2 spectra
// table needs every row's peak_offset/peak_count computed against the
// whole dataset, so (unlike v1's row-by-row streaming) the full spectrum
// list is retained until Close.
func (p *PackagerV2) WriteSpectra(spectra []*ingest.IngestSpectrum) error {
	p.spectra = append(p.spectra, spectra...)
	p.spectrumCount += int64(len(spectra))
	for _, s := range spectra {
		p.peakCount += int64(s.Peaks.Len())
		if s.Precursor != nil {
			p.hasPrecursor = true
		}
	}
	return nil
}

func (p *PackagerV2) manifest() Manifest {
	return NewManifest(p.modality, p.spectrumCount, p.peakCount, p.hasPrecursor, p.converter)
}

// Close writes the accumulated dataset to dest according to layout.
func (p *PackagerV2) Close(dest string, layout Layout) (Stats, error) {
	sb, pb := writer.FlattenV2(p.spectra, p.modality.HasIonMobility())
	switch layout {
	case LayoutDirectory:
		return p.writeDirectory(dest, sb, pb)
	default:
		return p.writeContainer(dest, sb, pb)
	}
}

func (p *PackagerV2) writeDirectory(root string, sb *writer.SpectraBatch, pb *writer.PeaksBatch) (Stats, error) {
	if _, err := os.Stat(root); err == nil {
		return Stats{}, mzerr.ErrAlreadyExists
	}
	if err := os.MkdirAll(filepath.Join(root, "spectra"), 0o755); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "create spectra directory", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "peaks"), 0o755); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "create peaks directory", err)
	}

	kv := p.meta.FooterKV()
	props := schema.BuildWriterProperties(p.policy, kv)

	if err := writeTableFile(filepath.Join(root, "spectra", "spectra.parquet"),
		schema.SpectraTableSchema(nil), props, sb.ToRecord(nil)); err != nil {
		return Stats{}, err
	}
	if err := writeTableFile(filepath.Join(root, "peaks", "peaks.parquet"),
		schema.PeaksTableSchema(pb.HasIonMobility, nil), props, pb.ToRecord()); err != nil {
		return Stats{}, err
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

	m := p.manifest()
	mJSON, err := m.ToJSON()
	if err != nil {
		return Stats{}, err
	}
	if err := os.WriteFile(filepath.Join(root, "manifest.json"), mJSON, 0o644); err != nil {
		return Stats{}, mzerr.Wrap(mzerr.KindIO, "write manifest.json", err)
	}
	if err := p.meta.WriteFile(filepath.Join(root, "metadata.json")); err != nil {
		return Stats{}, err
	}
	return Stats{SpectrumCount: p.spectrumCount, PeakCount: p.peakCount}, nil
}

func (p *PackagerV2) writeContainer(path string, sb *writer.SpectraBatch, pb *writer.PeaksBatch) (Stats, error) {
	if _, err := os.Stat(path); err == nil {
		return Stats{}, mzerr.ErrAlreadyExists
	}

	kv := p.meta.FooterKV()
	props := schema.BuildWriterProperties(p.policy, kv)

	spectraSink := newMemSink()
	if err := writeTableSink(spectraSink, schema.SpectraTableSchema(nil), props, sb.ToRecord(nil)); err != nil {
		return Stats{}, err
	}
	peaksSink := newMemSink()
	if err := writeTableSink(peaksSink, schema.PeaksTableSchema(pb.HasIonMobility, nil), props, pb.ToRecord()); err != nil {
		return Stats{}, err
	}

	m := p.manifest()
	mJSON, err := m.ToJSON()
	if err != nil {
		return Stats{}, err
	}
	metaJSON, err := p.meta.ToJSON()
	if err != nil {
		return Stats{}, err
	}

	cb := newContainerBuilder()
	if err := cb.writeMimetype(schema.MimeTypeV2); err != nil {
		return Stats{}, err
	}
	if err := cb.writeJSON("manifest.json", mJSON); err != nil {
		return Stats{}, err
	}
	if err := cb.writeJSON("metadata.json", metaJSON); err != nil {
		return Stats{}, err
	}
	if err := cb.writeStoredParquet("spectra/spectra.parquet", spectraSink.Bytes()); err != nil {
		return Stats{}, err
	}
	if err := cb.writeStoredParquet("peaks/peaks.parquet", peaksSink.Bytes()); err != nil {
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
	return Stats{SpectrumCount: p.spectrumCount, PeakCount: p.peakCount}, nil
}
