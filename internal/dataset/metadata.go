// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package dataset implements the dataset packager (C5): placing the
// columnar payload and metadata produced by internal/writer into either a
// directory bundle or a seekable ZIP-like container, in both schema
// generations.
package dataset

import (
	"encoding/json"
	"os"
	"time"

	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/schema"
)

// Metadata is the sidecar metadata.json document, and also the source of
// the Parquet footer's key/value metadata dictionary (§6): every non-empty
// field here is additionally embedded, JSON-encoded, under its
// schema.Key... constant so a reader opening only the columnar file (no
// metadata.json alongside it, as inside a container) still sees it.
type Metadata struct {
	FormatVersion       string          `json:"format_version"`
	ConversionTimestamp time.Time       `json:"conversion_timestamp"`
	ConverterInfo       string          `json:"converter_info"`
	SDRFMetadata        json.RawMessage `json:"sdrf_metadata,omitempty"`
	InstrumentConfig    json.RawMessage `json:"instrument_config,omitempty"`
	LCConfig            json.RawMessage `json:"lc_config,omitempty"`
	RunParameters       json.RawMessage `json:"run_parameters,omitempty"`
	SourceFile          json.RawMessage `json:"source_file,omitempty"`
	ProcessingHistory   json.RawMessage `json:"processing_history,omitempty"`
	VendorHints         json.RawMessage `json:"vendor_hints,omitempty"`
	RawFileChecksum     string          `json:"raw_file_checksum,omitempty"`
	ImagingMetadata     json.RawMessage `json:"imaging_metadata,omitempty"`
}

// ToJSON marshals m for the metadata.json sidecar document.
func (m Metadata) ToJSON() ([]byte, error) {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, mzerr.Wrap(mzerr.KindMetadata, "marshal metadata.json", err)
	}
	return b, nil
}

// WriteFile writes m as metadata.json at path.
func (m Metadata) WriteFile(path string) error {
	b, err := m.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return mzerr.Wrap(mzerr.KindIO, "write "+path, err)
	}
	return nil
}

// FooterKV builds the Parquet key/value metadata dictionary (§6) from m.
// The format-version, conversion-timestamp and converter-info keys are
// always written; the optional keys absent from m (zero value) are omitted
// rather than written empty.
func (m Metadata) FooterKV() map[string]string {
	kv := map[string]string{
		schema.KeyFormatVersion:       m.FormatVersion,
		schema.KeyConversionTimestamp: m.ConversionTimestamp.UTC().Format(time.RFC3339),
		schema.KeyConverterInfo:       m.ConverterInfo,
	}
	putJSON := func(key string, raw json.RawMessage) {
		if len(raw) > 0 {
			kv[key] = string(raw)
		}
	}
	putJSON(schema.KeySDRFMetadata, m.SDRFMetadata)
	putJSON(schema.KeyInstrumentConfig, m.InstrumentConfig)
	putJSON(schema.KeyLCConfig, m.LCConfig)
	putJSON(schema.KeyRunParameters, m.RunParameters)
	putJSON(schema.KeySourceFile, m.SourceFile)
	putJSON(schema.KeyProcessingHistory, m.ProcessingHistory)
	putJSON(schema.KeyVendorHints, m.VendorHints)
	putJSON(schema.KeyImagingMetadata, m.ImagingMetadata)
	if m.RawFileChecksum != "" {
		kv[schema.KeyRawFileChecksum] = m.RawFileChecksum
	}
	return kv
}
