// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ingest

import (
	"testing"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

func twoPeakMS1(id int64, rt float32) *IngestSpectrum {
	return &IngestSpectrum{
		SpectrumID:    id,
		ScanNumber:    id + 1,
		MSLevel:       1,
		RetentionTime: rt,
		Polarity:      1,
		Peaks: Peaks{
			MZ:        []float64{400.0, 500.0},
			Intensity: []float32{10000, 20000},
		},
	}
}

func TestConverterContiguity(t *testing.T) {
	c := NewConverter(Modality{})
	for i := int64(0); i < 5; i++ {
		s := twoPeakMS1(i, float32(i)*10)
		if err := c.Convert(s); err != nil {
			t.Fatalf("Convert(%d) failed: %v", i, err)
		}
	}
	if c.NextID() != 5 {
		t.Fatalf("NextID() = %d, want 5", c.NextID())
	}

	s := twoPeakMS1(9, 100)
	err := c.Convert(s)
	if err == nil {
		t.Fatal("Convert with non-contiguous id succeeded, want error")
	}
	if kind, ok := mzerr.KindOf(err); !ok || kind != mzerr.KindContract {
		t.Fatalf("Convert error kind = %v, want KindContract", kind)
	}
	if c.NextID() != 5 {
		t.Fatalf("NextID() after failed convert = %d, want unchanged 5", c.NextID())
	}
}

func TestConverterDerivedStats(t *testing.T) {
	c := NewConverter(Modality{})
	s := twoPeakMS1(0, 60.0)
	if err := c.Convert(s); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if *s.TotalIonCurrent != 30000 {
		t.Errorf("TotalIonCurrent = %v, want 30000", *s.TotalIonCurrent)
	}
	if *s.BasePeakMZ != 500.0 {
		t.Errorf("BasePeakMZ = %v, want 500.0", *s.BasePeakMZ)
	}
	if *s.BasePeakIntensity != 20000 {
		t.Errorf("BasePeakIntensity = %v, want 20000", *s.BasePeakIntensity)
	}
}

func TestConverterNeverOverwritesSuppliedStats(t *testing.T) {
	c := NewConverter(Modality{})
	tic := 1.0
	bpmz := 2.0
	bpi := float32(3.0)
	s := twoPeakMS1(0, 60.0)
	s.TotalIonCurrent = &tic
	s.BasePeakMZ = &bpmz
	s.BasePeakIntensity = &bpi
	if err := c.Convert(s); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if *s.TotalIonCurrent != 1.0 || *s.BasePeakMZ != 2.0 || *s.BasePeakIntensity != 3.0 {
		t.Fatalf("Convert overwrote caller-supplied summary stats")
	}
}

func TestConverterPeakLengthMismatch(t *testing.T) {
	c := NewConverter(Modality{})
	s := twoPeakMS1(0, 0)
	s.Peaks.Intensity = s.Peaks.Intensity[:1]
	err := c.Convert(s)
	if err == nil {
		t.Fatal("Convert with mismatched peak arrays succeeded, want error")
	}
}

func TestConverterEmptyPeakList(t *testing.T) {
	c := NewConverter(Modality{})
	s := twoPeakMS1(0, 0)
	s.Peaks.MZ = nil
	s.Peaks.Intensity = nil
	if err := c.Convert(s); err != nil {
		t.Fatalf("Convert with empty peak list failed: %v", err)
	}
	if *s.TotalIonCurrent != 0 {
		t.Errorf("TotalIonCurrent for empty peak list = %v, want 0", *s.TotalIonCurrent)
	}
	if s.BasePeakMZ != nil {
		t.Errorf("BasePeakMZ for empty peak list = %v, want nil", s.BasePeakMZ)
	}
}

func TestConverterIonMobilityModalityMismatch(t *testing.T) {
	c := NewConverter(Modality{HasIonMobility: true})
	s := twoPeakMS1(0, 0)
	err := c.Convert(s)
	if err == nil {
		t.Fatal("Convert of ion-mobility dataset without ion_mobility values succeeded, want error")
	}
}

func TestConverterImagingRequiresPixel(t *testing.T) {
	c := NewConverter(Modality{HasImaging: true})
	s := twoPeakMS1(0, 0)
	err := c.Convert(s)
	if err == nil {
		t.Fatal("Convert of imaging dataset without pixel coordinates succeeded, want error")
	}

	c2 := NewConverter(Modality{})
	s2 := twoPeakMS1(0, 0)
	s2.Pixel = &Pixel{X: 1, Y: 2}
	if err := c2.Convert(s2); err == nil {
		t.Fatal("Convert of non-imaging dataset with pixel coordinates succeeded, want error")
	}
}

func TestConverterMS2RequiresPrecursor(t *testing.T) {
	c := NewConverter(Modality{})
	s := twoPeakMS1(0, 0)
	s.MSLevel = 2
	if err := c.Convert(s); err == nil {
		t.Fatal("Convert of MS2 without precursor succeeded, want error")
	}
}

func TestConverterRetentionTimeWarningOnly(t *testing.T) {
	c := NewConverter(Modality{})
	if err := c.Convert(twoPeakMS1(0, 10)); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if err := c.Convert(twoPeakMS1(1, 5)); err != nil {
		t.Fatalf("Convert of non-monotonic rt failed (should be warning-only): %v", err)
	}
	if c.NonmonotonicRetentionTimeCount() != 1 {
		t.Errorf("NonmonotonicRetentionTimeCount() = %d, want 1", c.NonmonotonicRetentionTimeCount())
	}
}
