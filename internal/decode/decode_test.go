// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func encodeFloat32Array(vals []float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func encodeFloat64Array(vals []float64) []byte {
	buf := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func zlibCompress(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("zlib write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close failed: %v", err)
	}
	return buf.Bytes()
}

func TestArrayRoundTripFloat64Zlib(t *testing.T) {
	want := []float64{400.0, 500.0, 1234.5678}
	raw := encodeFloat64Array(want)
	compressed := zlibCompress(t, raw)
	b64 := []byte(base64.StdEncoding.EncodeToString(compressed))

	got, err := Array(b64, Float64, CompressionZlib, len(want))
	if err != nil {
		t.Fatalf("Array failed: %v", err)
	}
	if len(got.F64) != len(want) {
		t.Fatalf("len = %d, want %d", len(got.F64), len(want))
	}
	for i := range want {
		if got.F64[i] != want[i] {
			t.Errorf("F64[%d] = %v, want %v", i, got.F64[i], want[i])
		}
	}
}

func TestArrayRoundTripFloat32Uncompressed(t *testing.T) {
	want := []float32{10000, 20000, 30000.5}
	raw := encodeFloat32Array(want)
	b64 := []byte(base64.StdEncoding.EncodeToString(raw))

	got, err := Array(b64, Float32, CompressionNone, len(want))
	if err != nil {
		t.Fatalf("Array failed: %v", err)
	}
	for i := range want {
		if got.F32[i] != want[i] {
			t.Errorf("F32[%d] = %v, want %v", i, got.F32[i], want[i])
		}
	}
}

func TestArrayWhitespaceIsStripped(t *testing.T) {
	want := []float64{1.0, 2.0}
	raw := encodeFloat64Array(want)
	b64 := base64.StdEncoding.EncodeToString(raw)
	withWhitespace := []byte("  " + b64[:len(b64)/2] + "\n\t" + b64[len(b64)/2:] + " \r")

	got, err := Array(withWhitespace, Float64, CompressionNone, len(want))
	if err != nil {
		t.Fatalf("Array failed: %v", err)
	}
	if len(got.F64) != len(want) || got.F64[0] != want[0] || got.F64[1] != want[1] {
		t.Fatalf("Array with embedded whitespace decoded to %v, want %v", got.F64, want)
	}
}

func TestArrayEmptyInput(t *testing.T) {
	got, err := Array([]byte(""), Float64, CompressionNone, 0)
	if err != nil {
		t.Fatalf("Array on empty input failed: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got.Len())
	}

	got2, err := Array([]byte("   \n\t"), Float32, CompressionNone, 0)
	if err != nil {
		t.Fatalf("Array on whitespace-only input failed: %v", err)
	}
	if got2.Len() != 0 {
		t.Errorf("Len() = %d, want 0", got2.Len())
	}
}

func TestArrayLengthMismatch(t *testing.T) {
	raw := encodeFloat64Array([]float64{1, 2, 3})
	b64 := []byte(base64.StdEncoding.EncodeToString(raw))
	_, err := Array(b64, Float64, CompressionNone, 99)
	if err == nil {
		t.Fatal("Array with wrong expectedLen succeeded, want error")
	}
}

func TestArrayRejectsNumpress(t *testing.T) {
	_, err := Array([]byte("AAAA"), Float64, CompressionNumpressLinear, -1)
	if err == nil {
		t.Fatal("Array with numpress compression succeeded, want error")
	}
}

func TestArrayRejectsInvalidBase64(t *testing.T) {
	_, err := Array([]byte("not-valid-base64!!!"), Float64, CompressionNone, -1)
	if err == nil {
		t.Fatal("Array with invalid base64 succeeded, want error")
	}
}

// TestDecodeDeterminism verifies the "wide" and scalar paths produce
// bitwise-identical output for well-formed input, per §4.3's determinism
// guarantee and the round-trip property in §8.
func TestDecodeDeterminism(t *testing.T) {
	raw := []byte("  some/base64+text==\t with\nwhitespace \r")
	if got, want := stripWhitespaceWide(raw), stripWhitespaceScalar(raw); !bytes.Equal(got, want) {
		t.Fatalf("stripWhitespaceWide = %q, stripWhitespaceScalar = %q", got, want)
	}

	clean := []byte(base64.StdEncoding.EncodeToString(encodeFloat64Array([]float64{1.5, -2.25, 3})))
	wide, err := base64DecodeWide(clean)
	if err != nil {
		t.Fatalf("base64DecodeWide failed: %v", err)
	}
	scalar, err := base64DecodeScalar(clean)
	if err != nil {
		t.Fatalf("base64DecodeScalar failed: %v", err)
	}
	if !bytes.Equal(wide, scalar) {
		t.Fatalf("base64 decode paths disagree")
	}

	f32Raw := encodeFloat32Array([]float32{1, 2, 3, 4, 5})
	f32Wide, err := readFloat32Wide(f32Raw)
	if err != nil {
		t.Fatalf("readFloat32Wide failed: %v", err)
	}
	f32Scalar, err := readFloat32Scalar(f32Raw)
	if err != nil {
		t.Fatalf("readFloat32Scalar failed: %v", err)
	}
	if len(f32Wide) != len(f32Scalar) {
		t.Fatalf("float32 path lengths differ")
	}
	for i := range f32Wide {
		if f32Wide[i] != f32Scalar[i] {
			t.Fatalf("float32 paths disagree at %d: %v vs %v", i, f32Wide[i], f32Scalar[i])
		}
	}

	f64Raw := encodeFloat64Array([]float64{1, 2, 3, 4, 5})
	f64Wide, err := readFloat64Wide(f64Raw)
	if err != nil {
		t.Fatalf("readFloat64Wide failed: %v", err)
	}
	f64Scalar, err := readFloat64Scalar(f64Raw)
	if err != nil {
		t.Fatalf("readFloat64Scalar failed: %v", err)
	}
	for i := range f64Wide {
		if f64Wide[i] != f64Scalar[i] {
			t.Fatalf("float64 paths disagree at %d: %v vs %v", i, f64Wide[i], f64Scalar[i])
		}
	}
}
