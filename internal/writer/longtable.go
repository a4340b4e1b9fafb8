// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/schema"
)

// LongBatch is the v1 "long" table's owned columnar form: one row per peak,
// with every spectrum-level column repeated across its spectrum's peak rows
// (§4.2/§4.3). It owns every backing slice; once built, the batch can be
// handed to ToRecord exactly once (the value slices are transferred into
// Arrow buffers without copying).
type LongBatch struct {
	SpectrumID    []int64
	ScanNumber    []int64
	MSLevel       []int16
	RetentionTime []float32
	Polarity      []int8
	MZ            []float64
	Intensity     []float32

	IonMobility OptionalColumn[float64]

	PrecursorMZ          OptionalColumn[float64]
	PrecursorCharge      OptionalColumn[int16]
	PrecursorIntensity   OptionalColumn[float32]
	IsolationWindowLower OptionalColumn[float32]
	IsolationWindowUpper OptionalColumn[float32]
	CollisionEnergy      OptionalColumn[float32]
	TotalIonCurrent      OptionalColumn[float64]
	BasePeakMZ           OptionalColumn[float64]
	BasePeakIntensity    OptionalColumn[float32]
	InjectionTime        OptionalColumn[float32]
	PixelX               OptionalColumn[int32]
	PixelY               OptionalColumn[int32]
	PixelZ               OptionalColumn[int32]
}

// Rows returns the number of peak rows accumulated so far.
func (b *LongBatch) Rows() int { return len(b.MZ) }

// FlattenLong appends every spectrum's peaks into an existing LongBatch
// (creating a fresh one if b is nil), replicating spectrum-level metadata
// across each spectrum's peak rows.
func FlattenLong(b *LongBatch, spectra []*ingest.IngestSpectrum) *LongBatch {
	if b == nil {
		b = &LongBatch{}
	}
	for _, s := range spectra {
		n := s.Peaks.Len()
		for i := 0; i < n; i++ {
			b.SpectrumID = append(b.SpectrumID, s.SpectrumID)
			b.ScanNumber = append(b.ScanNumber, s.ScanNumber)
			b.MSLevel = append(b.MSLevel, s.MSLevel)
			b.RetentionTime = append(b.RetentionTime, s.RetentionTime)
			b.Polarity = append(b.Polarity, s.Polarity)
		}
		b.MZ = append(b.MZ, s.Peaks.MZ...)
		b.Intensity = append(b.Intensity, s.Peaks.Intensity...)

		for i := 0; i < n; i++ {
			present := s.Peaks.IonMobility != nil
			var v float64
			if present {
				v = s.Peaks.IonMobility[i]
				if s.Peaks.Valid != nil && !s.Peaks.Valid[i] {
					present = false
				}
			}
			b.IonMobility.Observe(present, v)
		}

		hasPrecursor := s.Precursor != nil
		for i := 0; i < n; i++ {
			if hasPrecursor {
				b.PrecursorMZ.Observe(true, s.Precursor.MZ)
				b.PrecursorCharge.Observe(true, s.Precursor.Charge)
				b.PrecursorIntensity.Observe(true, s.Precursor.Intensity)
				b.IsolationWindowLower.Observe(true, s.Precursor.IsolationWindowLower)
				b.IsolationWindowUpper.Observe(true, s.Precursor.IsolationWindowUpper)
				b.CollisionEnergy.Observe(true, s.Precursor.CollisionEnergy)
			} else {
				b.PrecursorMZ.Observe(false, 0)
				b.PrecursorCharge.Observe(false, 0)
				b.PrecursorIntensity.Observe(false, 0)
				b.IsolationWindowLower.Observe(false, 0)
				b.IsolationWindowUpper.Observe(false, 0)
				b.CollisionEnergy.Observe(false, 0)
			}
			b.TotalIonCurrent.Observe(s.TotalIonCurrent != nil, derefF64(s.TotalIonCurrent))
			b.BasePeakMZ.Observe(s.BasePeakMZ != nil, derefF64(s.BasePeakMZ))
			b.BasePeakIntensity.Observe(s.BasePeakIntensity != nil, derefF32(s.BasePeakIntensity))
			b.InjectionTime.Observe(s.InjectionTime != nil, derefF32(s.InjectionTime))
			if s.Pixel != nil {
				b.PixelX.Observe(true, s.Pixel.X)
				b.PixelY.Observe(true, s.Pixel.Y)
				if s.Pixel.HasZ {
					b.PixelZ.Observe(true, s.Pixel.Z)
				} else {
					b.PixelZ.Observe(false, 0)
				}
			} else {
				b.PixelX.Observe(false, 0)
				b.PixelY.Observe(false, 0)
				b.PixelZ.Observe(false, 0)
			}
		}
	}
	return b
}

func derefF64(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefF32(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}

// ToRecord transfers b's owned buffers into an arrow.Record matching
// schema.LongTableFields, releasing b's backing slices to the new record
// (b must not be reused afterwards).
func (b *LongBatch) ToRecord(mem *zeroBufferCache) arrow.Record {
	if mem == nil {
		mem = newZeroBufferCache()
	}
	rows := b.Rows()
	cols := []arrow.Array{
		buildDense(arrow.PrimitiveTypes.Int64, b.SpectrumID),
		buildDense(arrow.PrimitiveTypes.Int64, b.ScanNumber),
		buildDense(arrow.PrimitiveTypes.Int16, b.MSLevel),
		buildDense(arrow.PrimitiveTypes.Float32, b.RetentionTime),
		buildDense(arrow.PrimitiveTypes.Int8, b.Polarity),
		buildDense(arrow.PrimitiveTypes.Float64, b.MZ),
		buildDense(arrow.PrimitiveTypes.Float32, b.Intensity),
		buildOptional(arrow.PrimitiveTypes.Float64, &b.IonMobility, mem),
		buildOptional(arrow.PrimitiveTypes.Float64, &b.PrecursorMZ, mem),
		buildOptional(arrow.PrimitiveTypes.Int16, &b.PrecursorCharge, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.PrecursorIntensity, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.IsolationWindowLower, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.IsolationWindowUpper, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.CollisionEnergy, mem),
		buildOptional(arrow.PrimitiveTypes.Float64, &b.TotalIonCurrent, mem),
		buildOptional(arrow.PrimitiveTypes.Float64, &b.BasePeakMZ, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.BasePeakIntensity, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &b.InjectionTime, mem),
		buildOptional(arrow.PrimitiveTypes.Int32, &b.PixelX, mem),
		buildOptional(arrow.PrimitiveTypes.Int32, &b.PixelY, mem),
		buildOptional(arrow.PrimitiveTypes.Int32, &b.PixelZ, mem),
	}
	schemaObj := schema.LongTableSchema(nil)
	return array.NewRecord(schemaObj, cols, int64(rows))
}
