// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ingest

import (
	"fmt"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// Converter assigns each accepted record a compact spectrum id in stream
// order and fails fast on any gap or regression (spec.md §3 invariant 2).
// It also fills TotalIonCurrent/BasePeakMZ/BasePeakIntensity from the peak
// arrays when the source did not supply them; it never overwrites a
// caller-supplied value.
type Converter struct {
	nextID       int64
	lastRT       float32
	haveLastRT   bool
	modality     Modality
	rtNonmonotone int
}

// Modality mirrors schema.Modality without importing the schema package,
// keeping the ingest contract free of the Parquet/Arrow dependency chain;
// internal/dataset translates between the two.
type Modality struct {
	HasIonMobility bool
	HasImaging     bool
}

// NewConverter returns a Converter expecting the stream to start at
// spectrum id 0 and enforcing the modality invariants (§3, invariants 3-4).
func NewConverter(m Modality) *Converter {
	return &Converter{modality: m}
}

// Convert validates s, enforces id contiguity, computes derived summary
// statistics when absent, and advances the expected-id counter by exactly
// one. On any failure the counter is left unchanged so a caller may safely
// abort the whole dataset.
func (c *Converter) Convert(s *IngestSpectrum) error {
	if err := ValidateContract(s); err != nil {
		return err
	}
	if s.SpectrumID != c.nextID {
		return mzerr.Field("spectrum_id",
			fmt.Sprintf("expected contiguous id %d, got %d", c.nextID, s.SpectrumID))
	}

	if c.modality.HasIonMobility {
		if s.Peaks.Len() > 0 && s.Peaks.IonMobility == nil {
			return mzerr.Field("peaks.ion_mobility",
				"dataset declares ion mobility but spectrum has no ion_mobility values")
		}
	} else if s.Peaks.IonMobility != nil {
		return mzerr.Field("peaks.ion_mobility",
			"spectrum has ion_mobility values but dataset does not declare ion mobility")
	}

	if c.modality.HasImaging && s.Pixel == nil {
		return mzerr.Field("pixel", "imaging modality requires pixel_x/pixel_y on every spectrum")
	}
	if !c.modality.HasImaging && s.Pixel != nil {
		return mzerr.Field("pixel", "pixel coordinates present but dataset is not an imaging modality")
	}

	if c.haveLastRT && s.RetentionTime < c.lastRT {
		// Invariant 5 is warning-level, not fatal: some dataset types
		// intentionally interleave. The caller's report surfaces this count.
		c.rtNonmonotone++
	}
	c.lastRT = s.RetentionTime
	c.haveLastRT = true

	fillDerivedStats(s)

	c.nextID++
	return nil
}

// NonmonotonicRetentionTimeCount returns how many accepted spectra had a
// retention time lower than their predecessor's.
func (c *Converter) NonmonotonicRetentionTimeCount() int { return c.rtNonmonotone }

// NextID returns the id the next successfully converted spectrum must carry.
func (c *Converter) NextID() int64 { return c.nextID }

func fillDerivedStats(s *IngestSpectrum) {
	n := s.Peaks.Len()
	if s.TotalIonCurrent == nil {
		var tic float64
		for _, v := range s.Peaks.Intensity {
			tic += float64(v)
		}
		s.TotalIonCurrent = &tic
	}
	if n > 0 && (s.BasePeakMZ == nil || s.BasePeakIntensity == nil) {
		bestIdx := 0
		for i := 1; i < n; i++ {
			if s.Peaks.Intensity[i] > s.Peaks.Intensity[bestIdx] {
				bestIdx = i
			}
		}
		if s.BasePeakMZ == nil {
			mz := s.Peaks.MZ[bestIdx]
			s.BasePeakMZ = &mz
		}
		if s.BasePeakIntensity == nil {
			in := s.Peaks.Intensity[bestIdx]
			s.BasePeakIntensity = &in
		}
	}
}
