// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mzml

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"

	"github.com/saferwall/mzpeak/internal/decode"
)

func encodeFloat64(vals []float64) []byte {
	raw := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
	}
	return []byte(base64.StdEncoding.EncodeToString(raw))
}

func encodeFloat32(vals []float32) []byte {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return []byte(base64.StdEncoding.EncodeToString(raw))
}

func sampleRaw(id string, index int) RawSpectrum {
	mz := []float64{100.1, 200.2, 300.3}
	intensity := []float32{10, 20, 30}
	return RawSpectrum{
		ID:            id,
		Index:         index,
		MSLevel:       1,
		Polarity:      1,
		RetentionTime: float32(index),
		MZArray: RawArray{
			Data:               encodeFloat64(mz),
			Encoding:           decode.Float64,
			Compression:        decode.CompressionNone,
			DefaultArrayLength: len(mz),
		},
		IntensityArray: RawArray{
			Data:               encodeFloat32(intensity),
			Encoding:           decode.Float32,
			Compression:        decode.CompressionNone,
			DefaultArrayLength: len(intensity),
		},
	}
}

func TestConvertDecodesArrays(t *testing.T) {
	s, err := Convert(sampleRaw("s1", 0))
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(s.Peaks.MZ) != 3 || len(s.Peaks.Intensity) != 3 {
		t.Fatalf("Convert peak arrays = %+v", s.Peaks)
	}
	if s.Peaks.MZ[1] != 200.2 {
		t.Errorf("mz[1] = %v, want 200.2", s.Peaks.MZ[1])
	}
}

func TestConvertRejectsMismatchedArrayLengths(t *testing.T) {
	raw := sampleRaw("s1", 0)
	raw.IntensityArray.DefaultArrayLength = 2
	if _, err := Convert(raw); err == nil {
		t.Error("Convert should fail when default_array_length disagrees with the encoded data")
	}
}

func TestConvertWithPrecursorAndPixel(t *testing.T) {
	raw := sampleRaw("s2", 1)
	raw.Precursor = &RawPrecursor{MZ: 500.5, Charge: 2}
	raw.Pixel = &RawPixel{X: 3, Y: 4}

	s, err := Convert(raw)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if s.Precursor == nil || s.Precursor.MZ != 500.5 || s.Precursor.Charge != 2 {
		t.Errorf("Precursor = %+v", s.Precursor)
	}
	if s.Pixel == nil || s.Pixel.X != 3 || s.Pixel.Y != 4 || s.Pixel.HasZ {
		t.Errorf("Pixel = %+v", s.Pixel)
	}
}

func TestDecodeBatchPreservesOrder(t *testing.T) {
	raws := make([]RawSpectrum, 20)
	for i := range raws {
		raws[i] = sampleRaw("s", i)
	}
	out, err := DecodeBatch(context.Background(), raws, 4)
	if err != nil {
		t.Fatalf("DecodeBatch: %v", err)
	}
	if len(out) != len(raws) {
		t.Fatalf("DecodeBatch returned %d spectra, want %d", len(out), len(raws))
	}
	for i, s := range out {
		if s.SpectrumID != int64(i) {
			t.Fatalf("out[%d].SpectrumID = %d, want %d (order not preserved)", i, s.SpectrumID, i)
		}
	}
}

func TestDecodeBatchStopsOnFirstError(t *testing.T) {
	raws := make([]RawSpectrum, 8)
	for i := range raws {
		raws[i] = sampleRaw("s", i)
	}
	raws[3].IntensityArray.DefaultArrayLength = 999

	if _, err := DecodeBatch(context.Background(), raws, 4); err == nil {
		t.Error("DecodeBatch should surface a decode error from any worker")
	}
}
