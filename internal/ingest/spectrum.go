// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package ingest implements the thin-waist contract (C2): every source
// decoder (C3) normalises into the one IngestSpectrum shape defined here,
// ValidateContract enforces spec.md §3's invariants, and Converter assigns
// compact, contiguous spectrum ids in stream order.
package ingest

import (
	"math"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// Peaks is one spectrum's peak arrays. IonMobility follows the three-state
// contract from §3: nil (all-absent), non-nil with Valid nil (all-present),
// or non-nil with Valid set (present-with-per-row validity).
type Peaks struct {
	MZ          []float64
	Intensity   []float32
	IonMobility []float64
	// Valid is the per-row validity bitmap for IonMobility. Its length must
	// equal len(IonMobility) when non-nil.
	Valid []bool
}

// Len returns the peak count, i.e. len(MZ).
func (p Peaks) Len() int { return len(p.MZ) }

// Precursor holds the fields present iff MSLevel >= 2.
type Precursor struct {
	MZ                   float64
	Charge               int16
	Intensity            float32
	IsolationWindowLower float32
	IsolationWindowUpper float32
	CollisionEnergy      float32
}

// Pixel holds imaging coordinates, present only for the imaging modality.
type Pixel struct {
	X int32
	Y int32
	Z int32
	// HasZ reports whether Z was supplied (3D imaging).
	HasZ bool
}

// IngestSpectrum is the single record shape the writer (C4) consumes,
// regardless of which source decoder produced it.
type IngestSpectrum struct {
	SpectrumID    int64
	ScanNumber    int64
	MSLevel       int16
	RetentionTime float32
	Polarity      int8

	Precursor *Precursor

	// Summary statistics. Computed by Converter from Peaks when nil.
	TotalIonCurrent   *float64
	BasePeakMZ        *float64
	BasePeakIntensity *float32

	InjectionTime *float32
	Pixel         *Pixel

	Peaks Peaks
}

// ValidateContract enforces the invariants from spec.md §3 that are
// checkable on a single record in isolation (contiguity of spectrum ids is
// enforced separately by Converter, which sees the whole stream). Returns a
// *mzerr.Error naming the offending field on failure.
func ValidateContract(s *IngestSpectrum) error {
	if s.MSLevel < 1 {
		return mzerr.Field("ms_level", "ms_level must be >= 1")
	}
	if s.Polarity < -1 || s.Polarity > 1 {
		return mzerr.Field("polarity", "polarity must be one of -1, 0, 1")
	}
	if math.IsNaN(float64(s.RetentionTime)) || math.IsInf(float64(s.RetentionTime), 0) {
		return mzerr.Field("retention_time", "retention_time must be finite")
	}
	if s.MSLevel < 2 && s.Precursor != nil {
		return mzerr.Field("precursor", "precursor fields present for ms_level < 2")
	}
	if s.MSLevel >= 2 && s.Precursor == nil {
		return mzerr.Field("precursor", "precursor fields required for ms_level >= 2")
	}

	n := len(s.Peaks.MZ)
	if len(s.Peaks.Intensity) != n {
		return mzerr.Field("peaks.intensity", "intensity array length does not match mz array length")
	}
	for i, mz := range s.Peaks.MZ {
		if math.IsNaN(mz) || math.IsInf(mz, 0) || mz <= 0 {
			return mzerr.Field("peaks.mz", "mz values must be positive and finite")
		}
		if s.Peaks.Intensity[i] < 0 {
			return mzerr.Field("peaks.intensity", "intensity values must be non-negative")
		}
	}

	if s.Peaks.IonMobility != nil {
		if len(s.Peaks.IonMobility) != n {
			return mzerr.Field("peaks.ion_mobility", "ion_mobility array length does not match mz array length")
		}
		if s.Peaks.Valid != nil && len(s.Peaks.Valid) != n {
			return mzerr.Field("peaks.ion_mobility_validity", "ion_mobility validity bitmap length does not match mz array length")
		}
	} else if s.Peaks.Valid != nil {
		return mzerr.Field("peaks.ion_mobility_validity", "validity bitmap present without ion_mobility values")
	}

	return nil
}
