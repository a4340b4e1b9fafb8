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

// SpectraBatch is the v2 normalised "spectra" table: one row per spectrum,
// with PeakOffset/PeakCount joining it to a PeaksBatch (§4.3).
type SpectraBatch struct {
	SpectrumID    []uint32
	ScanNumber    []int64
	MSLevel       []uint8
	RetentionTime []float32
	Polarity      []int8

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
	PixelX               OptionalColumn[uint16]
	PixelY               OptionalColumn[uint16]
	PixelZ               OptionalColumn[uint16]

	PeakOffset []uint64
	PeakCount  []uint32
}

// PeaksBatch is the v2 "peaks" table: one row per peak, joined back to its
// spectrum by SpectrumID (sorted ascending so range reads can prune by
// row-group statistics, §6/C6).
type PeaksBatch struct {
	SpectrumID  []uint32
	MZ          []float64
	Intensity   []float32
	IonMobility []float64

	HasIonMobility bool
}

func (b *SpectraBatch) Rows() int { return len(b.SpectrumID) }
func (b *PeaksBatch) Rows() int   { return len(b.SpectrumID) }

// FlattenV2 builds the spectra and peaks tables from a batch of converted
// spectra. hasIonMobility controls whether the peaks table carries an
// ion_mobility column at all (it is a dataset-wide, not per-row, decision
// in the normalised schema).
func FlattenV2(spectra []*ingest.IngestSpectrum, hasIonMobility bool) (*SpectraBatch, *PeaksBatch) {
	sb := &SpectraBatch{}
	pb := &PeaksBatch{HasIonMobility: hasIonMobility}

	var offset uint64
	for _, s := range spectra {
		n := s.Peaks.Len()
		sb.SpectrumID = append(sb.SpectrumID, uint32(s.SpectrumID))
		sb.ScanNumber = append(sb.ScanNumber, s.ScanNumber)
		sb.MSLevel = append(sb.MSLevel, uint8(s.MSLevel))
		sb.RetentionTime = append(sb.RetentionTime, s.RetentionTime)
		sb.Polarity = append(sb.Polarity, s.Polarity)
		sb.PeakOffset = append(sb.PeakOffset, offset)
		sb.PeakCount = append(sb.PeakCount, uint32(n))
		offset += uint64(n)

		if s.Precursor != nil {
			sb.PrecursorMZ.Observe(true, s.Precursor.MZ)
			sb.PrecursorCharge.Observe(true, s.Precursor.Charge)
			sb.PrecursorIntensity.Observe(true, s.Precursor.Intensity)
			sb.IsolationWindowLower.Observe(true, s.Precursor.IsolationWindowLower)
			sb.IsolationWindowUpper.Observe(true, s.Precursor.IsolationWindowUpper)
			sb.CollisionEnergy.Observe(true, s.Precursor.CollisionEnergy)
		} else {
			sb.PrecursorMZ.Observe(false, 0)
			sb.PrecursorCharge.Observe(false, 0)
			sb.PrecursorIntensity.Observe(false, 0)
			sb.IsolationWindowLower.Observe(false, 0)
			sb.IsolationWindowUpper.Observe(false, 0)
			sb.CollisionEnergy.Observe(false, 0)
		}
		sb.TotalIonCurrent.Observe(s.TotalIonCurrent != nil, derefF64(s.TotalIonCurrent))
		sb.BasePeakMZ.Observe(s.BasePeakMZ != nil, derefF64(s.BasePeakMZ))
		sb.BasePeakIntensity.Observe(s.BasePeakIntensity != nil, derefF32(s.BasePeakIntensity))
		sb.InjectionTime.Observe(s.InjectionTime != nil, derefF32(s.InjectionTime))
		if s.Pixel != nil {
			sb.PixelX.Observe(true, uint16(s.Pixel.X))
			sb.PixelY.Observe(true, uint16(s.Pixel.Y))
			if s.Pixel.HasZ {
				sb.PixelZ.Observe(true, uint16(s.Pixel.Z))
			} else {
				sb.PixelZ.Observe(false, 0)
			}
		} else {
			sb.PixelX.Observe(false, 0)
			sb.PixelY.Observe(false, 0)
			sb.PixelZ.Observe(false, 0)
		}

		for i := 0; i < n; i++ {
			pb.SpectrumID = append(pb.SpectrumID, uint32(s.SpectrumID))
		}
		pb.MZ = append(pb.MZ, s.Peaks.MZ...)
		pb.Intensity = append(pb.Intensity, s.Peaks.Intensity...)
		if hasIonMobility {
			pb.IonMobility = append(pb.IonMobility, s.Peaks.IonMobility...)
		}
	}
	return sb, pb
}

// ToRecord transfers sb's owned buffers into an arrow.Record matching
// schema.SpectraTableFields.
func (sb *SpectraBatch) ToRecord(mem *zeroBufferCache) arrow.Record {
	if mem == nil {
		mem = newZeroBufferCache()
	}
	rows := sb.Rows()
	cols := []arrow.Array{
		buildDense(arrow.PrimitiveTypes.Uint32, sb.SpectrumID),
		buildDense(arrow.PrimitiveTypes.Int64, sb.ScanNumber),
		buildDense(arrow.PrimitiveTypes.Uint8, sb.MSLevel),
		buildDense(arrow.PrimitiveTypes.Float32, sb.RetentionTime),
		buildDense(arrow.PrimitiveTypes.Int8, sb.Polarity),
		buildOptional(arrow.PrimitiveTypes.Float64, &sb.PrecursorMZ, mem),
		buildOptional(arrow.PrimitiveTypes.Int16, &sb.PrecursorCharge, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.PrecursorIntensity, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.IsolationWindowLower, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.IsolationWindowUpper, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.CollisionEnergy, mem),
		buildOptional(arrow.PrimitiveTypes.Float64, &sb.TotalIonCurrent, mem),
		buildOptional(arrow.PrimitiveTypes.Float64, &sb.BasePeakMZ, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.BasePeakIntensity, mem),
		buildOptional(arrow.PrimitiveTypes.Float32, &sb.InjectionTime, mem),
		buildOptional(arrow.PrimitiveTypes.Uint16, &sb.PixelX, mem),
		buildOptional(arrow.PrimitiveTypes.Uint16, &sb.PixelY, mem),
		buildOptional(arrow.PrimitiveTypes.Uint16, &sb.PixelZ, mem),
		buildDense(arrow.PrimitiveTypes.Uint64, sb.PeakOffset),
		buildDense(arrow.PrimitiveTypes.Uint32, sb.PeakCount),
	}
	schemaObj := schema.SpectraTableSchema(nil)
	return array.NewRecord(schemaObj, cols, int64(rows))
}

// ToRecord transfers pb's owned buffers into an arrow.Record matching
// schema.PeaksTableFields(pb.HasIonMobility).
func (pb *PeaksBatch) ToRecord() arrow.Record {
	rows := pb.Rows()
	cols := []arrow.Array{
		buildDense(arrow.PrimitiveTypes.Uint32, pb.SpectrumID),
		buildDense(arrow.PrimitiveTypes.Float64, pb.MZ),
		buildDense(arrow.PrimitiveTypes.Float32, pb.Intensity),
	}
	if pb.HasIonMobility {
		cols = append(cols, buildDense(arrow.PrimitiveTypes.Float64, pb.IonMobility))
	}
	schemaObj := schema.PeaksTableSchema(pb.HasIonMobility, nil)
	return array.NewRecord(schemaObj, cols, int64(rows))
}
