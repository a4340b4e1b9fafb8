// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// SpectraTableFields returns the v2 "spectra" table fields: one row per
// spectrum, with peak_offset/peak_count joining it to the "peaks" table.
// imaging and precursor fields are still declared (as
// nullable) regardless of modality; the manifest's derived flags tell
// readers which ones are ever populated.
func SpectraTableFields() []arrow.Field {
	return []arrow.Field{
		field(SpectrumID, arrow.PrimitiveTypes.Uint32, false),
		field(ScanNumber, arrow.PrimitiveTypes.Int64, false),
		field(MSLevel, arrow.PrimitiveTypes.Uint8, false),
		field(RetentionTime, arrow.PrimitiveTypes.Float32, false),
		field(Polarity, arrow.PrimitiveTypes.Int8, false),
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
		field(PixelX, arrow.PrimitiveTypes.Uint16, true),
		field(PixelY, arrow.PrimitiveTypes.Uint16, true),
		field(PixelZ, arrow.PrimitiveTypes.Uint16, true),
		field(PeakOffset, arrow.PrimitiveTypes.Uint64, false),
		field(PeakCount, arrow.PrimitiveTypes.Uint32, false),
	}
}

// PeaksTableFields returns the v2 "peaks" table fields. The ion_mobility
// column is included only when hasIonMobility is true, matching the
// manifest's has_ion_mobility flag.
func PeaksTableFields(hasIonMobility bool) []arrow.Field {
	f := []arrow.Field{
		field(SpectrumID, arrow.PrimitiveTypes.Uint32, false),
		field(MZ, arrow.PrimitiveTypes.Float64, false),
		field(Intensity, arrow.PrimitiveTypes.Float32, false),
	}
	if hasIonMobility {
		f = append(f, field(IonMobility, arrow.PrimitiveTypes.Float64, false))
	}
	return f
}

// SpectraTableSchema builds the Arrow schema for the v2 spectra table.
func SpectraTableSchema(kv map[string]string) *arrow.Schema {
	return withKV(SpectraTableFields(), kv)
}

// PeaksTableSchema builds the Arrow schema for the v2 peaks table.
func PeaksTableSchema(hasIonMobility bool, kv map[string]string) *arrow.Schema {
	return withKV(PeaksTableFields(hasIonMobility), kv)
}

func withKV(fields []arrow.Field, kv map[string]string) *arrow.Schema {
	keys := make([]string, 0, len(kv))
	vals := make([]string, 0, len(kv))
	for k, v := range kv {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	md := arrow.NewMetadata(keys, vals)
	return arrow.NewSchema(fields, &md)
}

// ChromatogramFields returns the minimal four-column chromatogram schema
// (id, type, time array, intensity array); no picking/extraction logic is
// in scope (§1 Non-goals).
func ChromatogramFields() []arrow.Field {
	return []arrow.Field{
		{Name: ChromatogramID, Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
		{Name: ChromatogramType, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: TimeArray, Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: IntensityArray, Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	}
}

// MobilogramFields returns the minimal three-column mobilogram schema.
func MobilogramFields() []arrow.Field {
	return []arrow.Field{
		{Name: MobilogramID, Type: arrow.PrimitiveTypes.Uint32, Nullable: false},
		{Name: MobilityArray, Type: arrow.PrimitiveTypes.Float64, Nullable: false},
		{Name: IntensityArray, Type: arrow.PrimitiveTypes.Float64, Nullable: false},
	}
}
