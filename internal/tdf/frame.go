// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package tdf

import (
	"fmt"

	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzerr"
)

// RawFrame is one Bruker TDF frame as the (out-of-scope) TDF reader is
// assumed to hand it over: already-decoded TOF indices, intensities and
// per-scan offsets, with no base64/zlib stage involved.
type RawFrame struct {
	FrameIndex    int
	MSLevel       int16
	RetentionTime float32

	// TofIndices and Intensities are parallel, one entry per peak across
	// the whole frame.
	TofIndices  []uint32
	Intensities []float32

	// ScanOffsets has len(scans)+1 entries; scan i's peaks are
	// TofIndices[ScanOffsets[i]:ScanOffsets[i+1]].
	ScanOffsets []uint32

	// MALDI imaging coordinates, if this is an imaging acquisition.
	Pixel *RawPixel
}

// RawPixel mirrors mzml.RawPixel; duplicated here rather than imported to
// keep tdf decoupled from mzml (both are independent C3 decoders sharing
// only the ingest contract).
type RawPixel struct {
	X, Y, Z int32
	HasZ    bool
}

// FramePrecursor is one row of the precursor table, keyed by frame index,
// joined onto MS2 frames during decode.
type FramePrecursor struct {
	FrameIndex      int
	CentralMZ       float64
	IsolationWidth  float32
	Charge          int16
	Intensity       float32
	CollisionEnergy float32
}

// validateFrame enforces the per-frame invariants from §4.3: peak_count
// agreement between tof_indices/intensities, and each scan boundary lying
// within [previous boundary, peak_count].
func validateFrame(f RawFrame) error {
	peakCount := len(f.TofIndices)
	if len(f.Intensities) != peakCount {
		return mzerr.Field("intensities", fmt.Sprintf(
			"frame %d: intensities length %d does not match tof_indices length %d",
			f.FrameIndex, len(f.Intensities), peakCount))
	}
	for i := 0; i+1 < len(f.ScanOffsets); i++ {
		lo, hi := f.ScanOffsets[i], f.ScanOffsets[i+1]
		if hi < lo || int(hi) > peakCount {
			return mzerr.Field("scan_offsets", fmt.Sprintf(
				"frame %d: scan_offsets[%d]=%d out of range [%d, %d]",
				f.FrameIndex, i+1, hi, lo, peakCount))
		}
	}
	return nil
}

// DecodeFrame maps f's TOF indices and scan offsets to m/z and ion mobility
// using tof and scanMob, joins precursor, for MS2 frames, and produces one
// ingest.IngestSpectrum per frame (TDF has no further row-splitting: a
// frame is a spectrum).
func DecodeFrame(f RawFrame, tof TofToMZ, scanMob ScanToMobility, precursors map[int]FramePrecursor) (*ingest.IngestSpectrum, error) {
	if err := validateFrame(f); err != nil {
		return nil, err
	}

	n := len(f.TofIndices)
	mz := make([]float64, n)
	intensity := make([]float32, n)
	copy(intensity, f.Intensities)
	for i, t := range f.TofIndices {
		mz[i] = tof.ToMZ(t)
	}

	mobility := make([]float64, n)
	for scan := 0; scan+1 < len(f.ScanOffsets); scan++ {
		lo, hi := f.ScanOffsets[scan], f.ScanOffsets[scan+1]
		m := scanMob.ToMobility(uint32(scan))
		for i := lo; i < hi; i++ {
			mobility[i] = m
		}
	}

	s := &ingest.IngestSpectrum{
		SpectrumID:    int64(f.FrameIndex),
		ScanNumber:    int64(f.FrameIndex),
		MSLevel:       f.MSLevel,
		RetentionTime: f.RetentionTime,
		Polarity:      1,
		Peaks: ingest.Peaks{
			MZ:          mz,
			Intensity:   intensity,
			IonMobility: mobility,
		},
	}

	if f.MSLevel >= 2 {
		if p, ok := precursors[f.FrameIndex]; ok {
			halfWidth := p.IsolationWidth / 2
			s.Precursor = &ingest.Precursor{
				MZ:                   p.CentralMZ,
				Charge:               p.Charge,
				Intensity:            p.Intensity,
				IsolationWindowLower: halfWidth,
				IsolationWindowUpper: halfWidth,
				CollisionEnergy:      p.CollisionEnergy,
			}
		} else {
			return nil, mzerr.Field("precursor", fmt.Sprintf(
				"frame %d: ms_level >= 2 but no precursor table entry", f.FrameIndex))
		}
	}

	if f.Pixel != nil {
		s.Pixel = &ingest.Pixel{X: f.Pixel.X, Y: f.Pixel.Y, Z: f.Pixel.Z, HasZ: f.Pixel.HasZ}
	}
	return s, nil
}
