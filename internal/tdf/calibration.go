// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package tdf covers the Bruker TDF source decoder (C3). Unlike mzml, TDF
// already yields decoded TOF indices, intensities and scan offsets per
// frame; the work here is mapping those instrument-native units to m/z and
// ion mobility via calibration functions read once per dataset, and joining
// MS2 precursor information from a separate per-frame table. XML/TDF-SQLite
// access itself is out of scope (§1); this package consumes the already
// decoded RawFrame shape.
package tdf

// TofToMZ maps a TOF index to a mass-to-charge ratio. Implementations are
// read once per dataset from the TDF calibration tables and shared
// read-only across every decode worker.
type TofToMZ interface {
	ToMZ(tofIndex uint32) float64
}

// ScanToMobility maps a scan index to an ion-mobility (drift time) value.
type ScanToMobility interface {
	ToMobility(scan uint32) float64
}

// LinearTofToMZ is a two-point linear calibration: mz = (tof*slope+intercept)^2,
// the customary TOF-to-mass relationship for a simple single-stage
// reflectron calibration. Real instruments use higher-order polynomial or
// piecewise calibrations; this is the minimal calibration the writer-side
// engine needs to exercise the mapping contract.
type LinearTofToMZ struct {
	Slope     float64
	Intercept float64
}

func (c LinearTofToMZ) ToMZ(tofIndex uint32) float64 {
	v := float64(tofIndex)*c.Slope + c.Intercept
	return v * v
}

// LinearScanToMobility is a two-point linear calibration from scan index to
// ion mobility.
type LinearScanToMobility struct {
	Slope     float64
	Intercept float64
}

func (c LinearScanToMobility) ToMobility(scan uint32) float64 {
	return float64(scan)*c.Slope + c.Intercept
}
