// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package validate implements the three-step validator (C7): structure,
// metadata integrity, and schema/data sanity checks over either dataset
// layout, reported the way the original analyzer reports a track's
// issues — a flat list of named checks, each carrying its own status.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/saferwall/mzpeak/internal/reader"
	"github.com/saferwall/mzpeak/internal/schema"
)

// Status is a single check's outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusFailure Status = "failure"
)

// Check is one named validation result (§4.7).
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the full set of checks from one validation run.
type Report struct {
	Checks []Check `json:"checks"`
}

func (r *Report) add(name string, status Status, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Status: status, Detail: detail})
}

func (r *Report) ok(name string)                  { r.add(name, StatusOK, "") }
func (r *Report) warn(name, detail string)        { r.add(name, StatusWarning, detail) }
func (r *Report) fail(name string, err error)     { r.add(name, StatusFailure, err.Error()) }
func (r *Report) failDetail(name, detail string)  { r.add(name, StatusFailure, detail) }

// Failed reports whether any check recorded a failure; the validator's
// exit code is non-zero exactly when this is true (warnings do not fail
// the run, §4.7).
func (r Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFailure {
			return true
		}
	}
	return false
}

const sampleSize = 1000

// Run opens path and runs all three validator steps against it, returning
// the accumulated report. An error is returned only when the archive
// cannot be opened at all; every other problem becomes a failed or
// warning-level Check instead of aborting (§7, "the validator converts
// errors into structured report entries ... except when the archive
// cannot be opened at all").
func Run(ctx context.Context, path string) (Report, error) {
	var r Report

	d, err := reader.Open(path)
	if err != nil {
		return r, err
	}
	defer d.Close()

	r.ok("structure: open " + d.Layout.String())
	checkStructure(&r, d)
	checkMetadata(&r, d)
	checkSchemaAndData(ctx, &r, d)

	return r, nil
}

// checkStructure covers the parts of §4.7 step 1 that reader.Open does
// not already enforce as a hard failure: the container-entry compression
// method of the mandatory tables (Open only checks the leading mimetype
// entry).
func checkStructure(r *Report, d *reader.Dataset) {
	tables := []string{"peaks/peaks.parquet"}
	if d.Version == 2 {
		tables = append(tables, "spectra/spectra.parquet")
	}
	for _, name := range tables {
		stored, ok := d.EntryStored(name)
		check := tableCheckName(name) + " compression"
		switch {
		case !ok:
			r.failDetail(check, name+" is missing")
		case !stored:
			r.failDetail(check, name+" is not stored uncompressed")
		default:
			r.ok(check)
		}
	}
}

func tableCheckName(entry string) string {
	switch entry {
	case "peaks/peaks.parquet":
		return "peaks.parquet"
	case "spectra/spectra.parquet":
		return "spectra.parquet"
	default:
		return entry
	}
}

// checkMetadata covers §4.7 step 2: metadata.json parses (reader.Open
// already parses it, so its presence here just confirms the struct was
// populated) and the footer key/value dictionary carries the
// format-version key and round-trips.
func checkMetadata(r *Report, d *reader.Dataset) {
	if d.Metadata == nil {
		r.failDetail("metadata.json", "missing or failed to parse")
	} else {
		r.ok("metadata.json")
	}

	kv, err := d.FooterKV("peaks/peaks.parquet")
	if err != nil {
		r.fail("footer key/value dictionary", err)
		return
	}
	if _, ok := kv[schema.KeyFormatVersion]; !ok {
		r.failDetail("footer key/value dictionary", "missing "+schema.KeyFormatVersion)
		return
	}
	r.ok("footer key/value dictionary")

	for _, key := range []string{schema.KeySDRFMetadata, schema.KeyInstrumentConfig, schema.KeyRunParameters, schema.KeyVendorHints} {
		blob, ok := kv[key]
		if !ok || blob == "" {
			continue
		}
		var v interface{}
		if err := json.Unmarshal([]byte(blob), &v); err != nil {
			r.failDetail(key+" round-trip", "does not deserialise as JSON: "+err.Error())
			continue
		}
		r.ok(key + " round-trip")
	}
}

// checkSchemaAndData covers §4.7 step 3: the CV accession of every column
// that has a canonical one, then a bounded sample of rows checked for the
// basic peak/metadata sanity invariants. The presence and types of the
// required columns are not checked as a schema step.
func checkSchemaAndData(ctx context.Context, r *Report, d *reader.Dataset) {
	table := "peaks/peaks.parquet"
	if d.Version == 2 {
		table = "spectra/spectra.parquet"
	}
	schemaOK := checkTableSchema(r, d, table)
	if !schemaOK {
		return
	}

	if d.Version == 1 {
		checkLongTableData(ctx, r, d)
	} else {
		checkV2Data(ctx, r, d)
	}
}

func checkTableSchema(r *Report, d *reader.Dataset, table string) bool {
	sc, err := d.TableSchema(table)
	if err != nil {
		r.fail("schema: read "+table, err)
		return false
	}

	ok := true
	for i := 0; i < sc.NumFields(); i++ {
		f := sc.Field(i)
		want, known := schema.CVAccession[f.Name]
		if !known {
			continue
		}
		idx := f.Metadata.FindKey("cv_accession")
		got := ""
		if idx >= 0 {
			got = f.Metadata.Values()[idx]
		}
		if idx < 0 || got != want {
			r.failDetail("cv_accession:"+f.Name, fmt.Sprintf("want %s, got %q (present=%v)", want, got, idx >= 0))
			ok = false
			continue
		}
	}
	if ok {
		r.ok("schema: cv_accession")
	}
	return true
}

// checkLongTableData samples the v1 long table for the per-row sanity
// invariants of §4.7 step 3.
func checkLongTableData(ctx context.Context, r *Report, d *reader.Dataset) {
	s, err := d.ScanLongSpectra(ctx)
	if err != nil {
		r.fail("data sanity", err)
		return
	}
	defer s.Close()

	var rows int
	var lastRT float32
	haveLastRT := false
	nonDecreasing := true
	sane := true

	for rows < sampleSize {
		sa, err := s.Next()
		if err != nil {
			break
		}
		if sa.MSLevel < 1 {
			r.failDetail("data sanity: ms_level", fmt.Sprintf("spectrum %d has ms_level %d", sa.SpectrumID, sa.MSLevel))
			sane = false
		}
		for _, mz := range sa.MZ {
			if mz <= 0 {
				r.failDetail("data sanity: mz", fmt.Sprintf("spectrum %d has non-positive mz %v", sa.SpectrumID, mz))
				sane = false
				break
			}
		}
		for _, in := range sa.Intensity {
			if in < 0 {
				r.failDetail("data sanity: intensity", fmt.Sprintf("spectrum %d has negative intensity %v", sa.SpectrumID, in))
				sane = false
				break
			}
		}
		if haveLastRT && sa.RetentionTime < lastRT {
			nonDecreasing = false
		}
		lastRT, haveLastRT = sa.RetentionTime, true
		rows++
	}

	if sane {
		r.ok("data sanity: mz/intensity/ms_level")
	}
	if !nonDecreasing {
		r.warn("data sanity: retention_time monotonicity", "retention_time is not non-decreasing across spectra")
	} else {
		r.ok("data sanity: retention_time monotonicity")
	}
}

// checkV2Data samples the v2 spectra table, additionally requiring
// monotonic spectrum_id and finite retention time (§4.7 step 3, v2).
func checkV2Data(ctx context.Context, r *Report, d *reader.Dataset) {
	spectra, err := d.ReadSpectra(ctx)
	if err != nil {
		r.fail("data sanity", err)
		return
	}

	n := len(spectra)
	if n > sampleSize {
		n = sampleSize
	}

	monotonic := true
	finite := true
	nonDecreasingRT := true
	var lastID uint32
	haveLastID := false
	var lastRT float32
	haveLastRT := false

	for i := 0; i < n; i++ {
		sm := spectra[i]
		if haveLastID && sm.SpectrumID <= lastID {
			monotonic = false
		}
		lastID, haveLastID = sm.SpectrumID, true

		if math.IsNaN(float64(sm.RetentionTime)) || math.IsInf(float64(sm.RetentionTime), 0) {
			finite = false
		}
		if haveLastRT && sm.RetentionTime < lastRT {
			nonDecreasingRT = false
		}
		lastRT, haveLastRT = sm.RetentionTime, true

		if sm.MSLevel < 1 {
			r.failDetail("data sanity: ms_level", fmt.Sprintf("spectrum %d has ms_level %d", sm.SpectrumID, sm.MSLevel))
		}
	}

	if monotonic {
		r.ok("data sanity: spectrum_id monotonicity")
	} else {
		r.failDetail("data sanity: spectrum_id monotonicity", "spectrum_id is not strictly increasing")
	}
	if finite {
		r.ok("data sanity: retention_time finiteness")
	} else {
		r.failDetail("data sanity: retention_time finiteness", "retention_time contains NaN or Inf")
	}
	if nonDecreasingRT {
		r.ok("data sanity: retention_time monotonicity")
	} else {
		r.warn("data sanity: retention_time monotonicity", "retention_time is not non-decreasing across spectra")
	}

	peaks, err := d.PeaksForIDRange(ctx, 0, ^uint32(0))
	if err != nil {
		r.fail("data sanity: mz/intensity", err)
		return
	}
	sane := true
	for i, mz := range peaks.MZ {
		if mz <= 0 {
			r.failDetail("data sanity: mz", fmt.Sprintf("row %d has non-positive mz %v", i, mz))
			sane = false
			break
		}
	}
	for i, in := range peaks.Intensity {
		if in < 0 {
			r.failDetail("data sanity: intensity", fmt.Sprintf("row %d has negative intensity %v", i, in))
			sane = false
			break
		}
	}
	if sane {
		r.ok("data sanity: mz/intensity")
	}
}
