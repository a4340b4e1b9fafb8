// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package reader

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/saferwall/mzpeak/internal/ingest"
)

// Column positions within schema.SpectraTableFields() (§4.1).
const (
	v2colSpectrumID = iota
	v2colScanNumber
	v2colMSLevel
	v2colRetentionTime
	v2colPolarity
	v2colPrecursorMZ
	v2colPrecursorCharge
	v2colPrecursorIntensity
	v2colIsolationWindowLower
	v2colIsolationWindowUpper
	v2colCollisionEnergy
	v2colTotalIonCurrent
	v2colBasePeakMZ
	v2colBasePeakIntensity
	v2colInjectionTime
	v2colPixelX
	v2colPixelY
	v2colPixelZ
	v2colPeakOffset
	v2colPeakCount
)

// Column positions within schema.PeaksTableFields() (§4.1). IonMobility is
// only present when the manifest declares ion mobility.
const (
	peakColSpectrumID = iota
	peakColMZ
	peakColIntensity
	peakColIonMobility
)

// SpectrumMeta is one row of the v2 "spectra" table: spectrum-level
// metadata only, joined to its peak rows by PeakOffset/PeakCount.
type SpectrumMeta struct {
	SpectrumID    uint32
	ScanNumber    int64
	MSLevel       uint8
	RetentionTime float32
	Polarity      int8

	Precursor *ingest.Precursor

	TotalIonCurrent   *float64
	BasePeakMZ        *float64
	BasePeakIntensity *float32
	InjectionTime     *float32
	Pixel             *ingest.Pixel

	PeakOffset uint64
	PeakCount  uint32
}

func spectrumMetaFromRow(rec arrow.Record, row int) SpectrumMeta {
	m := SpectrumMeta{
		SpectrumID:    rec.Column(v2colSpectrumID).(*array.Uint32).Value(row),
		ScanNumber:    rec.Column(v2colScanNumber).(*array.Int64).Value(row),
		MSLevel:       rec.Column(v2colMSLevel).(*array.Uint8).Value(row),
		RetentionTime: rec.Column(v2colRetentionTime).(*array.Float32).Value(row),
		Polarity:      rec.Column(v2colPolarity).(*array.Int8).Value(row),
		PeakOffset:    rec.Column(v2colPeakOffset).(*array.Uint64).Value(row),
		PeakCount:     rec.Column(v2colPeakCount).(*array.Uint32).Value(row),
	}
	if pm := rec.Column(v2colPrecursorMZ); !pm.IsNull(row) {
		m.Precursor = &ingest.Precursor{
			MZ:                   pm.(*array.Float64).Value(row),
			Charge:               nullableInt16(rec.Column(v2colPrecursorCharge), row),
			Intensity:            nullableFloat32(rec.Column(v2colPrecursorIntensity), row),
			IsolationWindowLower: nullableFloat32(rec.Column(v2colIsolationWindowLower), row),
			IsolationWindowUpper: nullableFloat32(rec.Column(v2colIsolationWindowUpper), row),
			CollisionEnergy:      nullableFloat32(rec.Column(v2colCollisionEnergy), row),
		}
	}
	m.TotalIonCurrent = optFloat64(rec.Column(v2colTotalIonCurrent), row)
	m.BasePeakMZ = optFloat64(rec.Column(v2colBasePeakMZ), row)
	m.BasePeakIntensity = optFloat32(rec.Column(v2colBasePeakIntensity), row)
	m.InjectionTime = optFloat32(rec.Column(v2colInjectionTime), row)
	if px := rec.Column(v2colPixelX); !px.IsNull(row) {
		pixel := &ingest.Pixel{
			X: int32(px.(*array.Uint16).Value(row)),
			Y: int32(rec.Column(v2colPixelY).(*array.Uint16).Value(row)),
		}
		if pz := rec.Column(v2colPixelZ); !pz.IsNull(row) {
			pixel.Z = int32(pz.(*array.Uint16).Value(row))
			pixel.HasZ = true
		}
		m.Pixel = pixel
	}
	return m
}

// ReadSpectra reads the entire v2 spectra table (a metadata-only query:
// it never touches peaks.parquet, §4.6).
func (d *Dataset) ReadSpectra(ctx context.Context) ([]SpectrumMeta, error) {
	it, err := d.IterateSpectra(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []SpectrumMeta
	for it.Next() {
		rec := it.Record()
		for row := 0; row < int(rec.NumRows()); row++ {
			out = append(out, spectrumMetaFromRow(rec, row))
		}
		rec.Release()
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SpectrumMetaByID returns the single spectra-table row for id.
func (d *Dataset) SpectrumMetaByID(ctx context.Context, id uint32) (*SpectrumMeta, error) {
	spectra, err := d.ReadSpectra(ctx)
	if err != nil {
		return nil, err
	}
	for i := range spectra {
		if spectra[i].SpectrumID == id {
			return &spectra[i], nil
		}
	}
	return nil, io.EOF
}

// PeakSlice is one spectrum's peak columns read out of the v2 peaks
// table.
type PeakSlice struct {
	MZ          []float64
	Intensity   []float32
	IonMobility []float64 // nil when the dataset has no ion-mobility column
}

// PeaksForSpectrum reads exactly the peak rows belonging to id, pruning
// peaks.parquet's row groups on spectrum_id; because peaks are written
// sorted by spectrum_id the pruning is exact, not a degraded full scan
// (§4.6, "since peaks are sorted by spectrum_id, row-group pruning is
// exact").
func (d *Dataset) PeaksForSpectrum(ctx context.Context, id uint32) (PeakSlice, error) {
	return d.PeaksForIDRange(ctx, id, id)
}

// PeaksForIDRange reads every peak row whose spectrum_id lies in [lo, hi].
func (d *Dataset) PeaksForIDRange(ctx context.Context, lo, hi uint32) (PeakSlice, error) {
	groups, err := d.prunedRowGroups(peaksEntry, peakColSpectrumID, int64(lo), int64(hi))
	if err != nil {
		return PeakSlice{}, err
	}
	t, err := d.openTable(peaksEntry)
	if err != nil {
		return PeakSlice{}, err
	}
	it, err := newBatchIterator(ctx, t, groups)
	if err != nil {
		return PeakSlice{}, err
	}
	defer it.Close()

	hasIonMobility := d.HasIonMobility()
	var out PeakSlice
	for it.Next() {
		rec := it.Record()
		sidCol := rec.Column(peakColSpectrumID).(*array.Uint32)
		mzCol := rec.Column(peakColMZ).(*array.Float64)
		intensityCol := rec.Column(peakColIntensity).(*array.Float32)
		var imCol *array.Float64
		if hasIonMobility {
			imCol = rec.Column(peakColIonMobility).(*array.Float64)
		}
		for row := 0; row < int(rec.NumRows()); row++ {
			sid := sidCol.Value(row)
			if sid < lo || sid > hi {
				continue
			}
			out.MZ = append(out.MZ, mzCol.Value(row))
			out.Intensity = append(out.Intensity, intensityCol.Value(row))
			if imCol != nil {
				out.IonMobility = append(out.IonMobility, imCol.Value(row))
			}
		}
		rec.Release()
	}
	if err := it.Err(); err != nil {
		return PeakSlice{}, err
	}
	return out, nil
}
