// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package mzml covers the in-scope half of the mzML/imzML source decoder
// (C3): turning a RawSpectrum — the shape the (out-of-scope) XML tokenizer
// is assumed to emit — into a validated ingest.IngestSpectrum by running
// the decode package's binary pipeline over its numeric arrays. XML
// parsing itself is treated as an external collaborator per spec.md §1.
package mzml

import (
	"github.com/saferwall/mzpeak/internal/decode"
	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzerr"
)

// RawArray is one undecoded numeric array as the XML layer would hand it
// over: base64 text plus its encoding/compression annotations.
type RawArray struct {
	Data               []byte
	Encoding           decode.Encoding
	Compression        decode.Compression
	DefaultArrayLength int
}

// RawPrecursor mirrors ingest.Precursor prior to type/float normalisation.
type RawPrecursor struct {
	MZ                   float64
	Charge               int16
	Intensity            float32
	IsolationWindowLower float32
	IsolationWindowUpper float32
	CollisionEnergy      float32
}

// RawPixel carries imzML imaging coordinates, recognised from the spectrum's
// scan/coordinate cvParams.
type RawPixel struct {
	X, Y, Z int32
	HasZ    bool
}

// RawSpectrum is what the (out-of-scope) XML tokenizer streams out: one per
// acquisition event, with undecoded base64 arrays.
type RawSpectrum struct {
	ID            string
	Index         int
	MSLevel       int16
	Polarity      int8
	RetentionTime float32
	Precursor     *RawPrecursor
	Pixel         *RawPixel

	MZArray         RawArray
	IntensityArray  RawArray
	IonMobilityArray *RawArray

	InjectionTime *float32
}

// Convert runs the binary decode pipeline over r's arrays and assembles an
// ingest.IngestSpectrum. It does not call ingest.ValidateContract; the
// caller (typically a Converter) is responsible for that so that id
// assignment and validation stay in one place.
func Convert(r RawSpectrum) (*ingest.IngestSpectrum, error) {
	mzBuf, err := decode.Array(r.MZArray.Data, r.MZArray.Encoding, r.MZArray.Compression, r.MZArray.DefaultArrayLength)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindDecode, "mz array decode failed for spectrum "+r.ID, err)
	}
	inBuf, err := decode.Array(r.IntensityArray.Data, r.IntensityArray.Encoding, r.IntensityArray.Compression, r.IntensityArray.DefaultArrayLength)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindDecode, "intensity array decode failed for spectrum "+r.ID, err)
	}

	mz := asFloat64(mzBuf)
	intensity := asFloat32(inBuf)
	if len(mz) != len(intensity) {
		return nil, mzerr.Field("peaks", "mz/intensity decoded length mismatch for spectrum "+r.ID)
	}

	peaks := ingest.Peaks{MZ: mz, Intensity: intensity}
	if r.IonMobilityArray != nil {
		imBuf, err := decode.Array(r.IonMobilityArray.Data, r.IonMobilityArray.Encoding, r.IonMobilityArray.Compression, r.IonMobilityArray.DefaultArrayLength)
		if err != nil {
			return nil, mzerr.Wrap(mzerr.KindDecode, "ion_mobility array decode failed for spectrum "+r.ID, err)
		}
		im := asFloat64(imBuf)
		if len(im) != len(mz) {
			return nil, mzerr.Field("peaks.ion_mobility", "ion_mobility decoded length mismatch for spectrum "+r.ID)
		}
		peaks.IonMobility = im
	}

	s := &ingest.IngestSpectrum{
		SpectrumID:    int64(r.Index),
		ScanNumber:    int64(r.Index),
		MSLevel:       r.MSLevel,
		RetentionTime: r.RetentionTime,
		Polarity:      r.Polarity,
		InjectionTime: r.InjectionTime,
		Peaks:         peaks,
	}
	if r.Precursor != nil {
		s.Precursor = &ingest.Precursor{
			MZ:                   r.Precursor.MZ,
			Charge:               r.Precursor.Charge,
			Intensity:            r.Precursor.Intensity,
			IsolationWindowLower: r.Precursor.IsolationWindowLower,
			IsolationWindowUpper: r.Precursor.IsolationWindowUpper,
			CollisionEnergy:      r.Precursor.CollisionEnergy,
		}
	}
	if r.Pixel != nil {
		s.Pixel = &ingest.Pixel{X: r.Pixel.X, Y: r.Pixel.Y, Z: r.Pixel.Z, HasZ: r.Pixel.HasZ}
	}
	return s, nil
}

func asFloat64(b decode.Buffer) []float64 {
	if b.Encoding == decode.Float64 {
		return b.F64
	}
	out := make([]float64, len(b.F32))
	for i, v := range b.F32 {
		out[i] = float64(v)
	}
	return out
}

func asFloat32(b decode.Buffer) []float32 {
	if b.Encoding == decode.Float32 {
		return b.F32
	}
	out := make([]float32, len(b.F64))
	for i, v := range b.F64 {
		out[i] = float32(v)
	}
	return out
}
