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

// Column positions within schema.LongTableFields(), fixed by the v1
// schema's declared order (§4.1); hard-coding them avoids a name lookup
// per row on the hot materialisation path.
const (
	colSpectrumID = iota
	colScanNumber
	colMSLevel
	colRetentionTime
	colPolarity
	colMZ
	colIntensity
	colIonMobility
	colPrecursorMZ
	colPrecursorCharge
	colPrecursorIntensity
	colIsolationWindowLower
	colIsolationWindowUpper
	colCollisionEnergy
	colTotalIonCurrent
	colBasePeakMZ
	colBasePeakIntensity
	colInjectionTime
	colPixelX
	colPixelY
	colPixelZ
)

// SpectrumArrays is one logical spectrum materialised from the v1 long
// table (§4.6, "a view can produce an owned SpectrumArrays").
type SpectrumArrays struct {
	SpectrumID    int64
	ScanNumber    int64
	MSLevel       int16
	RetentionTime float32
	Polarity      int8

	MZ          []float64
	Intensity   []float32
	IonMobility []float64 // nil if this spectrum carries no ion mobility

	Precursor *ingest.Precursor

	TotalIonCurrent   *float64
	BasePeakMZ        *float64
	BasePeakIntensity *float32
	InjectionTime     *float32
	Pixel             *ingest.Pixel
}

// SpectrumView is a zero-copy reference into one or more underlying
// batches that share a spectrum_id; Materialise copies it into an owned
// SpectrumArrays. Kept distinct from SpectrumScanner's accumulator so
// single-batch callers (the common case) can avoid a materialisation pass
// entirely if they only need a slice of one column.
type SpectrumView struct {
	Record arrow.Record
	Start  int // first row, inclusive
	End    int // last row, exclusive
}

// Materialise copies the view's rows into an owned SpectrumArrays.
func (v SpectrumView) Materialise() *SpectrumArrays {
	sa := newSpectrumArraysFromLong(v.Record, v.Start)
	for row := v.Start; row < v.End; row++ {
		appendLongRow(sa, v.Record, row)
	}
	return sa
}

func newSpectrumArraysFromLong(rec arrow.Record, row int) *SpectrumArrays {
	sa := &SpectrumArrays{
		SpectrumID:    rec.Column(colSpectrumID).(*array.Int64).Value(row),
		ScanNumber:    rec.Column(colScanNumber).(*array.Int64).Value(row),
		MSLevel:       rec.Column(colMSLevel).(*array.Int16).Value(row),
		RetentionTime: rec.Column(colRetentionTime).(*array.Float32).Value(row),
		Polarity:      rec.Column(colPolarity).(*array.Int8).Value(row),
	}
	if pm := rec.Column(colPrecursorMZ); !pm.IsNull(row) {
		sa.Precursor = &ingest.Precursor{
			MZ:                   pm.(*array.Float64).Value(row),
			Charge:               nullableInt16(rec.Column(colPrecursorCharge), row),
			Intensity:            nullableFloat32(rec.Column(colPrecursorIntensity), row),
			IsolationWindowLower: nullableFloat32(rec.Column(colIsolationWindowLower), row),
			IsolationWindowUpper: nullableFloat32(rec.Column(colIsolationWindowUpper), row),
			CollisionEnergy:      nullableFloat32(rec.Column(colCollisionEnergy), row),
		}
	}
	sa.TotalIonCurrent = optFloat64(rec.Column(colTotalIonCurrent), row)
	sa.BasePeakMZ = optFloat64(rec.Column(colBasePeakMZ), row)
	sa.BasePeakIntensity = optFloat32(rec.Column(colBasePeakIntensity), row)
	sa.InjectionTime = optFloat32(rec.Column(colInjectionTime), row)
	if px := rec.Column(colPixelX); !px.IsNull(row) {
		pixel := &ingest.Pixel{
			X: px.(*array.Int32).Value(row),
			Y: rec.Column(colPixelY).(*array.Int32).Value(row),
		}
		if pz := rec.Column(colPixelZ); !pz.IsNull(row) {
			pixel.Z = pz.(*array.Int32).Value(row)
			pixel.HasZ = true
		}
		sa.Pixel = pixel
	}
	return sa
}

func appendLongRow(sa *SpectrumArrays, rec arrow.Record, row int) {
	sa.MZ = append(sa.MZ, rec.Column(colMZ).(*array.Float64).Value(row))
	sa.Intensity = append(sa.Intensity, rec.Column(colIntensity).(*array.Float32).Value(row))
	if im := rec.Column(colIonMobility); !im.IsNull(row) {
		sa.IonMobility = append(sa.IonMobility, im.(*array.Float64).Value(row))
	}
}

func optFloat64(col arrow.Array, row int) *float64 {
	if col.IsNull(row) {
		return nil
	}
	v := col.(*array.Float64).Value(row)
	return &v
}

func optFloat32(col arrow.Array, row int) *float32 {
	if col.IsNull(row) {
		return nil
	}
	v := col.(*array.Float32).Value(row)
	return &v
}

func nullableInt16(col arrow.Array, row int) int16 {
	if col.IsNull(row) {
		return 0
	}
	return col.(*array.Int16).Value(row)
}

func nullableFloat32(col arrow.Array, row int) float32 {
	if col.IsNull(row) {
		return 0
	}
	return col.(*array.Float32).Value(row)
}

// SpectrumScanner stitches one logical spectrum at a time out of the lazy
// v1 batch sequence, handling the case where a spectrum's peak rows
// straddle a row-group boundary (§4.6, "one logical spectrum is stitched
// from one or more adjacent batches that share its spectrum_id").
type SpectrumScanner struct {
	it      *BatchIterator
	rec     arrow.Record
	row     int
	pending *SpectrumArrays
}

// ScanLongSpectra returns a SpectrumScanner over the full v1 long table.
func (d *Dataset) ScanLongSpectra(ctx context.Context) (*SpectrumScanner, error) {
	it, err := d.IterateLong(ctx)
	if err != nil {
		return nil, err
	}
	return &SpectrumScanner{it: it}, nil
}

// Next returns the next logical spectrum, or io.EOF once the stream is
// exhausted.
func (s *SpectrumScanner) Next() (*SpectrumArrays, error) {
	for {
		if s.rec == nil || s.row >= int(s.rec.NumRows()) {
			if s.rec != nil {
				s.rec.Release()
				s.rec = nil
			}
			if !s.it.Next() {
				if err := s.it.Err(); err != nil {
					return nil, err
				}
				if s.pending != nil {
					out := s.pending
					s.pending = nil
					return out, nil
				}
				return nil, io.EOF
			}
			s.rec = s.it.Record()
			s.row = 0
		}

		id := s.rec.Column(colSpectrumID).(*array.Int64).Value(s.row)
		if s.pending != nil && s.pending.SpectrumID != id {
			out := s.pending
			s.pending = newSpectrumArraysFromLong(s.rec, s.row)
			appendLongRow(s.pending, s.rec, s.row)
			s.row++
			return out, nil
		}
		if s.pending == nil {
			s.pending = newSpectrumArraysFromLong(s.rec, s.row)
		}
		appendLongRow(s.pending, s.rec, s.row)
		s.row++
	}
}

// Close releases the scanner's underlying batch iterator.
func (s *SpectrumScanner) Close() error {
	if s.rec != nil {
		s.rec.Release()
	}
	return s.it.Close()
}

// FilterMSLevel returns every spectrum in the v1 long table at exactly
// level.
func (d *Dataset) FilterMSLevel(ctx context.Context, level int16) ([]*SpectrumArrays, error) {
	s, err := d.ScanLongSpectra(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var out []*SpectrumArrays
	for {
		sa, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if sa.MSLevel == level {
			out = append(out, sa)
		}
	}
}

// FilterRetentionTime returns every spectrum whose retention time lies in
// [lo, hi], in stream order.
func (d *Dataset) FilterRetentionTime(ctx context.Context, lo, hi float32) ([]*SpectrumArrays, error) {
	s, err := d.ScanLongSpectra(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var out []*SpectrumArrays
	for {
		sa, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if sa.RetentionTime >= lo && sa.RetentionTime <= hi {
			out = append(out, sa)
		}
	}
}

// SpectrumByID returns the single spectrum with the given id, pruning row
// groups by the spectrum_id column's statistics (§4.6).
func (d *Dataset) SpectrumByID(ctx context.Context, id int64) (*SpectrumArrays, error) {
	out, err := d.SpectrumIDRange(ctx, id, id)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, io.EOF
	}
	return out[0], nil
}

// SpectrumIDRange returns every spectrum whose id lies in [lo, hi], in
// ascending id order, using row-group statistics pruning on spectrum_id
// (§4.6, §8 "row-group pruning soundness").
func (d *Dataset) SpectrumIDRange(ctx context.Context, lo, hi int64) ([]*SpectrumArrays, error) {
	groups, err := d.prunedRowGroups(peaksEntry, colSpectrumID, lo, hi)
	if err != nil {
		return nil, err
	}
	t, err := d.openTable(peaksEntry)
	if err != nil {
		return nil, err
	}
	it, err := newBatchIterator(ctx, t, groups)
	if err != nil {
		return nil, err
	}
	scanner := &SpectrumScanner{it: it}
	defer scanner.Close()

	var out []*SpectrumArrays
	for {
		sa, err := scanner.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if sa.SpectrumID >= lo && sa.SpectrumID <= hi {
			out = append(out, sa)
		}
	}
}

// SpectraByIDs returns the spectra matching any id in ids, in stream
// order. Unlike SpectrumIDRange this does not prune row groups, since an
// arbitrary id set need not be contiguous.
func (d *Dataset) SpectraByIDs(ctx context.Context, ids []int64) ([]*SpectrumArrays, error) {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	s, err := d.ScanLongSpectra(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var out []*SpectrumArrays
	for {
		sa, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		if want[sa.SpectrumID] {
			out = append(out, sa)
		}
	}
}
