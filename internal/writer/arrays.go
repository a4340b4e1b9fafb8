// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package writer

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// asBytes reinterprets a fixed-width numeric slice as its raw little-endian
// byte representation with no element-by-element copy, so the Arrow value
// buffer built from it shares the same backing array as s (§4.2, "zero-copy
// ownership transfer").
func asBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	width := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*width)
}

// packValidity bit-packs a per-row boolean slice into an Arrow validity
// buffer in a single left-to-right pass.
func packValidity(valid []bool) *memory.Buffer {
	buf := memory.NewResizableBuffer(memory.DefaultAllocator)
	nbytes := bitutil.BytesForBits(int64(len(valid)))
	buf.Resize(int(nbytes))
	bytes := buf.Bytes()
	for i, v := range valid {
		if v {
			bitutil.SetBit(bytes, i)
		}
	}
	return buf
}

// zeroBufferCache hands out read-only zero-filled buffers for all-null
// optional columns, keyed by byte width, so that every all-null column in
// one batch shares a single buffer instead of each allocating its own
// (§4.4, "a single shared zero-byte buffer is reused").
type zeroBufferCache struct {
	byWidth map[int]*memory.Buffer
}

func newZeroBufferCache() *zeroBufferCache {
	return &zeroBufferCache{byWidth: make(map[int]*memory.Buffer)}
}

func (c *zeroBufferCache) get(width, rows int) *memory.Buffer {
	need := width * rows
	if buf, ok := c.byWidth[width]; ok && buf.Len() >= need {
		return buf
	}
	buf := memory.NewResizableBuffer(memory.DefaultAllocator)
	buf.Resize(need)
	c.byWidth[width] = buf
	return buf
}

// buildDense builds a non-nullable fixed-width array directly over values's
// backing array, with no validity buffer.
func buildDense[T any](dtype arrow.DataType, values []T) arrow.Array {
	width := int(unsafe.Sizeof(*new(T)))
	valueBuf := memory.NewBufferBytes(asBytes(values))
	data := array.NewData(dtype, len(values), []*memory.Buffer{nil, valueBuf}, nil, 0, 0)
	defer data.Release()
	_ = width
	return array.MakeFromData(data)
}

// buildOptional builds a nullable fixed-width array from an OptionalColumn,
// dispatching on its current state so the all-null and all-present
// variants never materialise a bitmap.
func buildOptional[T any](dtype arrow.DataType, col *OptionalColumn[T], zeros *zeroBufferCache) arrow.Array {
	width := int(unsafe.Sizeof(*new(T)))
	rows := col.Rows()

	switch col.State() {
	case StateAllNull:
		valueBuf := zeros.get(width, rows)
		validity := make([]bool, rows)
		validityBuf := packValidity(validity)
		data := array.NewData(dtype, rows, []*memory.Buffer{validityBuf, valueBuf}, nil, rows, 0)
		defer data.Release()
		return array.MakeFromData(data)
	case StateAllPresent:
		valueBuf := memory.NewBufferBytes(asBytes(col.Values()))
		data := array.NewData(dtype, rows, []*memory.Buffer{nil, valueBuf}, nil, 0, 0)
		defer data.Release()
		return array.MakeFromData(data)
	default: // StateWithValidity
		valueBuf := memory.NewBufferBytes(asBytes(col.Values()))
		validityBuf := packValidity(col.Validity())
		nullCount := 0
		for _, v := range col.Validity() {
			if !v {
				nullCount++
			}
		}
		data := array.NewData(dtype, rows, []*memory.Buffer{validityBuf, valueBuf}, nil, nullCount, 0)
		defer data.Release()
		return array.MakeFromData(data)
	}
}
