// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/schema"
)

// Manifest is the v2-only root-level manifest.json document (§6).
type Manifest struct {
	FormatVersion    string          `json:"format_version"`
	SchemaVersion    string          `json:"schema_version"`
	Modality         schema.Modality `json:"modality"`
	HasIonMobility   bool            `json:"has_ion_mobility"`
	HasImaging       bool            `json:"has_imaging"`
	HasPrecursorInfo bool            `json:"has_precursor_info"`
	SpectrumCount    int64           `json:"spectrum_count"`
	PeakCount        int64           `json:"peak_count"`
	Created          time.Time       `json:"created"`
	Converter        string          `json:"converter"`
	VendorHints      json.RawMessage `json:"vendor_hints,omitempty"`
	SchemaHash       string          `json:"schema_hash,omitempty"`
}

// NewManifest builds a Manifest with the fixed v2 version fields and
// modality-derived flags.
func NewManifest(modality schema.Modality, spectrumCount, peakCount int64, hasPrecursorInfo bool, converter string) Manifest {
	return Manifest{
		FormatVersion:    schema.FormatVersionV2,
		SchemaVersion:    schema.SchemaVersionV2,
		Modality:         modality,
		HasIonMobility:   modality.HasIonMobility(),
		HasImaging:       modality.HasImaging(),
		HasPrecursorInfo: hasPrecursorInfo,
		SpectrumCount:    spectrumCount,
		PeakCount:        peakCount,
		Created:          time.Now().UTC(),
		Converter:        converter,
	}
}

// ToJSON marshals the manifest.
func (m Manifest) ToJSON() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindMetadata, "marshal manifest.json", err)
	}
	return b, nil
}

// fieldTuple is the canonical, order-independent representation of one
// Arrow field used by SchemaHash.
type fieldTuple struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// SchemaHash computes the SHA-256 of the canonical JSON encoding of
// fields' name/type/nullability tuples, sorted by name, giving a stable
// fingerprint for schema-drift detection between writer versions.
func SchemaHash(fields []arrow.Field) string {
	tuples := make([]fieldTuple, 0, len(fields))
	for _, f := range fields {
		tuples = append(tuples, fieldTuple{Name: f.Name, Type: f.Type.String(), Nullable: f.Nullable})
	}
	sort.Slice(tuples, func(i, j int) bool { return tuples[i].Name < tuples[j].Name })
	b, _ := json.Marshal(tuples)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
