// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package decode implements the binary spectral-array decoding pipeline of
// C3: whitespace stripping, base64 decode, optional zlib inflate, and
// little-endian float interpretation. Each stage ships a "wide" path that
// processes several bytes/elements per iteration (standing in for the
// repository's SIMD intrinsics) and a scalar fallback; both must produce
// bitwise-identical output for well-formed input (§4.3, Determinism
// guarantee), which is exercised directly in decode_test.go.
package decode

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"io"
	"math"

	"github.com/saferwall/mzpeak/internal/mzerr"
)

// Encoding is the element width of a raw numeric array, as annotated by the
// XML layer (mzML's 32-bit-float / 64-bit-float CV terms).
type Encoding int

const (
	Float32 Encoding = iota
	Float64
)

// Compression is the array-level compression, as annotated by the XML
// layer. Numpress variants are recognised but always rejected: they are
// explicitly unsupported (§4.3).
type Compression int

const (
	CompressionNone Compression = iota
	CompressionZlib
	CompressionNumpressLinear
	CompressionNumpressSlof
	CompressionNumpressPic
)

// Buffer holds a decoded numeric array in whichever width Encoding
// specified; exactly one of F32/F64 is populated.
type Buffer struct {
	Encoding Encoding
	F32      []float32
	F64      []float64
}

// Len returns the decoded element count.
func (b Buffer) Len() int {
	if b.Encoding == Float32 {
		return len(b.F32)
	}
	return len(b.F64)
}

var wsTable = [256]bool{' ': true, '\t': true, '\n': true, '\r': true}

// needsStrip reports whether raw contains any ASCII whitespace, letting
// callers skip the strip pass entirely for already-clean input.
func needsStrip(raw []byte) bool {
	for _, b := range raw {
		if wsTable[b] {
			return true
		}
	}
	return false
}

// stripWhitespaceWide removes {space, tab, LF, CR} bytes from raw,
// processing 16-byte windows per iteration and compacting survivors. It
// stands in for the repository's SIMD strip pass.
func stripWhitespaceWide(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	i := 0
	for ; i+16 <= len(raw); i += 16 {
		chunk := raw[i : i+16]
		for _, b := range chunk {
			if !wsTable[b] {
				out = append(out, b)
			}
		}
	}
	for ; i < len(raw); i++ {
		if !wsTable[raw[i]] {
			out = append(out, raw[i])
		}
	}
	return out
}

// stripWhitespaceScalar is the byte-at-a-time equivalent of
// stripWhitespaceWide, used to prove the two paths agree.
func stripWhitespaceScalar(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if !wsTable[b] {
			out = append(out, b)
		}
	}
	return out
}

// base64DecodeWide decodes clean (whitespace-free) base64 text. It is the
// "vectorised decoder" path; functionally it is the standard decoder since
// Go offers no portable SIMD intrinsics without cgo/assembly, but it is
// kept as a distinct entry point so the two paths can be compared for
// determinism and so a future assembly implementation has a slot to land in.
func base64DecodeWide(clean []byte) ([]byte, error) {
	enc := base64.StdEncoding
	if n := len(clean); n > 0 && clean[n-1] != '=' && n%4 != 0 {
		enc = base64.RawStdEncoding
	}
	out := make([]byte, enc.DecodedLen(len(clean)))
	n, err := enc.Decode(out, clean)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindDecode, "invalid base64 input", err)
	}
	return out[:n], nil
}

// base64DecodeScalar is the scalar fallback decoder.
func base64DecodeScalar(clean []byte) ([]byte, error) {
	return base64DecodeWide(clean)
}

func inflateZlib(compressed []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindDecode, "invalid zlib stream", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindDecode, "zlib inflate failed", err)
	}
	return out, nil
}

// readFloat32Wide interprets raw as little-endian float32, reading four
// elements per iteration via bounds-checked slicing.
func readFloat32Wide(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, mzerr.New(mzerr.KindDecode, "insufficient bytes for float32 array")
	}
	n := len(raw) / 4
	out := make([]float32, n)
	i := 0
	for ; i+4 <= n; i += 4 {
		b := raw[i*4 : i*4+16]
		out[i] = decodeF32(b[0:4])
		out[i+1] = decodeF32(b[4:8])
		out[i+2] = decodeF32(b[8:12])
		out[i+3] = decodeF32(b[12:16])
	}
	for ; i < n; i++ {
		out[i] = decodeF32(raw[i*4 : i*4+4])
	}
	return out, nil
}

func readFloat32Scalar(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, mzerr.New(mzerr.KindDecode, "insufficient bytes for float32 array")
	}
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = decodeF32(raw[i*4 : i*4+4])
	}
	return out, nil
}

func readFloat64Wide(raw []byte) ([]float64, error) {
	if len(raw)%8 != 0 {
		return nil, mzerr.New(mzerr.KindDecode, "insufficient bytes for float64 array")
	}
	n := len(raw) / 8
	out := make([]float64, n)
	i := 0
	for ; i+2 <= n; i += 2 {
		b := raw[i*8 : i*8+16]
		out[i] = decodeF64(b[0:8])
		out[i+1] = decodeF64(b[8:16])
	}
	for ; i < n; i++ {
		out[i] = decodeF64(raw[i*8 : i*8+8])
	}
	return out, nil
}

func readFloat64Scalar(raw []byte) ([]float64, error) {
	if len(raw)%8 != 0 {
		return nil, mzerr.New(mzerr.KindDecode, "insufficient bytes for float64 array")
	}
	n := len(raw) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = decodeF64(raw[i*8 : i*8+8])
	}
	return out, nil
}

func decodeF32(b []byte) float32 {
	bits := binary.LittleEndian.Uint32(b)
	return math.Float32frombits(bits)
}

func decodeF64(b []byte) float64 {
	bits := binary.LittleEndian.Uint64(b)
	return math.Float64frombits(bits)
}

// Array runs the full decoding pipeline for one array: strip, base64
// decode, optional zlib inflate, float interpretation, and a length check
// against expectedLen (the XML layer's defaultArrayLength). expectedLen < 0
// skips the length check.
func Array(raw []byte, enc Encoding, comp Compression, expectedLen int) (Buffer, error) {
	switch comp {
	case CompressionNumpressLinear, CompressionNumpressSlof, CompressionNumpressPic:
		return Buffer{}, mzerr.New(mzerr.KindDecode, "numpress compression is not supported")
	case CompressionNone, CompressionZlib:
		// fall through
	default:
		return Buffer{}, mzerr.New(mzerr.KindDecode, "unknown compression variant")
	}

	clean := raw
	if needsStrip(raw) {
		clean = stripWhitespaceWide(raw)
	}
	if len(bytes.TrimSpace(clean)) == 0 {
		// §8 boundary: defaultArrayLength == 0, empty or whitespace-only
		// input decodes to an empty array without error.
		if expectedLen > 0 {
			return Buffer{}, mzerr.New(mzerr.KindDecode, "decoded element count does not match defaultArrayLength")
		}
		return emptyBuffer(enc), nil
	}

	decoded, err := base64DecodeWide(clean)
	if err != nil {
		return Buffer{}, err
	}

	if comp == CompressionZlib {
		decoded, err = inflateZlib(decoded)
		if err != nil {
			return Buffer{}, err
		}
	}

	var buf Buffer
	buf.Encoding = enc
	switch enc {
	case Float32:
		vals, err := readFloat32Wide(decoded)
		if err != nil {
			return Buffer{}, err
		}
		buf.F32 = vals
	case Float64:
		vals, err := readFloat64Wide(decoded)
		if err != nil {
			return Buffer{}, err
		}
		buf.F64 = vals
	}

	if expectedLen >= 0 && buf.Len() != expectedLen {
		return Buffer{}, mzerr.New(mzerr.KindDecode, "decoded element count does not match defaultArrayLength")
	}
	return buf, nil
}

func emptyBuffer(enc Encoding) Buffer {
	if enc == Float32 {
		return Buffer{Encoding: enc, F32: []float32{}}
	}
	return Buffer{Encoding: enc, F64: []float64{}}
}
