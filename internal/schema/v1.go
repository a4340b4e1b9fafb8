// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// cvMetadata builds the per-column Arrow field metadata carrying the CV
// accession for name, or an empty metadata set if name has none.
func cvMetadata(name string) arrow.Metadata {
	acc, ok := CVAccession[name]
	if !ok {
		return arrow.Metadata{}
	}
	return arrow.NewMetadata([]string{"cv_accession"}, []string{acc})
}

func field(name string, t arrow.DataType, nullable bool) arrow.Field {
	return arrow.Field{Name: name, Type: t, Nullable: nullable, Metadata: cvMetadata(name)}
}

// LongTableFields returns the 21 ordered fields of the v1 "long" schema:
// one row per peak, repeating spectrum-level metadata on every row.
func LongTableFields() []arrow.Field {
	return []arrow.Field{
		field(SpectrumID, arrow.PrimitiveTypes.Int64, false),
		field(ScanNumber, arrow.PrimitiveTypes.Int64, false),
		field(MSLevel, arrow.PrimitiveTypes.Int16, false),
		field(RetentionTime, arrow.PrimitiveTypes.Float32, false),
		field(Polarity, arrow.PrimitiveTypes.Int8, false),
		field(MZ, arrow.PrimitiveTypes.Float64, false),
		field(Intensity, arrow.PrimitiveTypes.Float32, false),
		field(IonMobility, arrow.PrimitiveTypes.Float64, true),
		field(PrecursorMZ, arrow.PrimitiveTypes.Float64, true),
		field(PrecursorCharge, arrow.PrimitiveTypes.Int16, true),
		field(PrecursorIntensity, arrow.PrimitiveTypes.Float32, true),
		field(IsolationWindowLower, arrow.PrimitiveTypes.Float32, true),
		field(IsolationWindowUpper, arrow.PrimitiveTypes.Float32, true),
		field(CollisionEnergy, arrow.PrimitiveTypes.Float32, true),
		field(TotalIonCurrent, arrow.PrimitiveTypes.Float64, true),
		field(BasePeakMZ, arrow.PrimitiveTypes.Float64, true),
		field(BasePeakIntensity, arrow.PrimitiveTypes.Float32, true),
		field(InjectionTime, arrow.PrimitiveTypes.Float32, true),
		field(PixelX, arrow.PrimitiveTypes.Int32, true),
		field(PixelY, arrow.PrimitiveTypes.Int32, true),
		field(PixelZ, arrow.PrimitiveTypes.Int32, true),
	}
}

// LongTableSchema builds the Arrow schema for the v1 long table, with kv
// carrying the footer's key/value metadata dictionary (§6).
func LongTableSchema(kv map[string]string) *arrow.Schema {
	keys := make([]string, 0, len(kv))
	vals := make([]string, 0, len(kv))
	for k, v := range kv {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	md := arrow.NewMetadata(keys, vals)
	return arrow.NewSchema(LongTableFields(), &md)
}
