// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package schema

import (
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
)

// CompressionPreset names one of the three presets from §4.1.
type CompressionPreset int

const (
	// PresetArchival is ZSTD level 9, the default.
	PresetArchival CompressionPreset = iota
	// PresetFastWrite is Snappy.
	PresetFastWrite
	// PresetMaxCompression is ZSTD level 22 with larger pages/row groups.
	PresetMaxCompression
)

// EncodingPolicy holds the tunables the writer (C4) turns into Parquet
// WriterProperties: row-group size, page size, compression, and whether
// byte-stream-split is applied to the high-cardinality float columns.
type EncodingPolicy struct {
	Preset             CompressionPreset
	RowGroupSize       int64
	DataPageSize       int64
	UseByteStreamSplit bool
	WriteStatistics    bool
}

// DefaultEncodingPolicy is the archival default: ZSTD level 9, 100k-row
// row groups, 1MB data pages, byte-stream-split enabled.
func DefaultEncodingPolicy() EncodingPolicy {
	return EncodingPolicy{
		Preset:             PresetArchival,
		RowGroupSize:       100_000,
		DataPageSize:       1024 * 1024,
		UseByteStreamSplit: true,
		WriteStatistics:    true,
	}
}

// MaxCompressionPolicy returns the "max-compression" preset: ZSTD level 22,
// 500k-row row groups, 2MB data pages.
func MaxCompressionPolicy() EncodingPolicy {
	p := DefaultEncodingPolicy()
	p.Preset = PresetMaxCompression
	p.RowGroupSize = 500_000
	p.DataPageSize = 2 * 1024 * 1024
	return p
}

// FastWritePolicy returns the "fast-write" preset: Snappy, smaller row
// groups, smaller pages.
func FastWritePolicy() EncodingPolicy {
	p := DefaultEncodingPolicy()
	p.Preset = PresetFastWrite
	p.RowGroupSize = 50_000
	p.DataPageSize = 512 * 1024
	return p
}

func (p EncodingPolicy) codec() (compress.Compression, int) {
	switch p.Preset {
	case PresetFastWrite:
		return compress.Codecs.Snappy, 0
	case PresetMaxCompression:
		return compress.Codecs.Zstd, 22
	default:
		return compress.Codecs.Zstd, 9
	}
}

// BuildWriterProperties assembles parquet.WriterProperties implementing
// the encoding policy in §4.1: dictionary+RLE on the scalar spectrum
// metadata columns, dictionary disabled plus (optionally) byte-stream-split
// on the high-cardinality float columns, and the footer's key/value
// metadata dictionary.
func BuildWriterProperties(policy EncodingPolicy, kv map[string]string) *parquet.WriterProperties {
	codec, level := policy.codec()

	opts := []parquet.WriterProperty{
		parquet.WithCompression(codec),
		parquet.WithMaxRowGroupLength(policy.RowGroupSize),
		parquet.WithDataPageSize(policy.DataPageSize),
		parquet.WithStats(policy.WriteStatistics),
		parquet.WithDictionaryDefault(false),
	}
	if level != 0 {
		opts = append(opts, parquet.WithCompressionLevel(level))
	}
	for _, col := range DictionaryColumns {
		opts = append(opts, parquet.WithDictionaryFor(col, true))
		opts = append(opts, parquet.WithEncodingFor(col, parquet.Encodings.RLEDict))
	}
	for _, col := range ByteStreamSplitColumns {
		opts = append(opts, parquet.WithDictionaryFor(col, false))
		if policy.UseByteStreamSplit {
			opts = append(opts, parquet.WithEncodingFor(col, parquet.Encodings.ByteStreamSplit))
		}
	}
	if len(kv) > 0 {
		meta := make(map[string]string, len(kv))
		for k, v := range kv {
			meta[k] = v
		}
		opts = append(opts, parquet.WithKeyValueMetadata(meta))
	}
	return parquet.NewWriterProperties(opts...)
}
