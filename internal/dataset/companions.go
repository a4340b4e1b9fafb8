// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/saferwall/mzpeak/internal/schema"
)

// arrowSchemaOf wraps a bare field list in a schema with no key/value
// metadata, for the companion tables (which carry no CV/footer metadata
// of their own).
func arrowSchemaOf(fields []arrow.Field) *arrow.Schema {
	return arrow.NewSchema(fields, nil)
}

// Chromatogram is one named time/intensity trace (TIC, BPC, ...). No
// peak-picking or extraction logic lives here (§1 Non-goals) — callers
// supply the already-extracted arrays.
type Chromatogram struct {
	ID        uint32
	Type      string
	Time      []float64
	Intensity []float64
}

// Mobilogram is one ion-mobility/intensity trace.
type Mobilogram struct {
	ID        uint32
	Mobility  []float64
	Intensity []float64
}

// ChromatogramsRecord builds the minimal chromatograms.parquet table: one
// row per (chromatogram, sample-point) pair.
func ChromatogramsRecord(chroms []Chromatogram) arrow.Record {
	mem := memory.DefaultAllocator
	idB := array.NewUint32Builder(mem)
	typeB := array.NewStringBuilder(mem)
	timeB := array.NewFloat64Builder(mem)
	intensityB := array.NewFloat64Builder(mem)
	defer idB.Release()
	defer typeB.Release()
	defer timeB.Release()
	defer intensityB.Release()

	for _, c := range chroms {
		for i := range c.Time {
			idB.Append(c.ID)
			typeB.Append(c.Type)
			timeB.Append(c.Time[i])
			intensityB.Append(c.Intensity[i])
		}
	}
	cols := []arrow.Array{idB.NewArray(), typeB.NewArray(), timeB.NewArray(), intensityB.NewArray()}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	sc := arrow.NewSchema(schema.ChromatogramFields(), nil)
	return array.NewRecord(sc, cols, int64(cols[0].Len()))
}

// MobilogramsRecord builds the minimal mobilograms.parquet table.
func MobilogramsRecord(mobilograms []Mobilogram) arrow.Record {
	mem := memory.DefaultAllocator
	idB := array.NewUint32Builder(mem)
	mobB := array.NewFloat64Builder(mem)
	intensityB := array.NewFloat64Builder(mem)
	defer idB.Release()
	defer mobB.Release()
	defer intensityB.Release()

	for _, m := range mobilograms {
		for i := range m.Mobility {
			idB.Append(m.ID)
			mobB.Append(m.Mobility[i])
			intensityB.Append(m.Intensity[i])
		}
	}
	cols := []arrow.Array{idB.NewArray(), mobB.NewArray(), intensityB.NewArray()}
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	sc := arrow.NewSchema(schema.MobilogramFields(), nil)
	return array.NewRecord(sc, cols, int64(cols[0].Len()))
}
