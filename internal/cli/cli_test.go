// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"strings"
	"testing"

	"github.com/saferwall/mzpeak/internal/decode"
)

func TestParseEncoding(t *testing.T) {
	cases := map[string]decode.Encoding{
		"":        decode.Float64,
		"float64": decode.Float64,
		"float32": decode.Float32,
	}
	for in, want := range cases {
		got, err := parseEncoding(in)
		if err != nil || got != want {
			t.Errorf("parseEncoding(%q) = %v, %v; want %v, nil", in, got, err, want)
		}
	}
	if _, err := parseEncoding("float16"); err == nil {
		t.Error("parseEncoding(\"float16\") should fail")
	}
}

func TestParseCompression(t *testing.T) {
	if c, err := parseCompression("zlib"); err != nil || c != decode.CompressionZlib {
		t.Errorf("parseCompression(zlib) = %v, %v", c, err)
	}
	if _, err := parseCompression("gzip"); err == nil {
		t.Error("parseCompression(\"gzip\") should fail")
	}
}

func TestReadRawSpectra(t *testing.T) {
	input := `{"id":"s1","index":0,"ms_level":1,"polarity":1,"retention_time":1.5,
		"mz_array":{"data":"","encoding":"float64","compression":"none","default_array_length":0},
		"intensity_array":{"data":"","encoding":"float32","compression":"none","default_array_length":0}}
`
	specs, err := readRawSpectra(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readRawSpectra: %v", err)
	}
	if len(specs) != 1 || specs[0].ID != "s1" || specs[0].MSLevel != 1 {
		t.Fatalf("readRawSpectra returned %+v", specs)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	if got := defaultOutputPath("run.jsonl", false); got != "run.mzpeak" {
		t.Errorf("defaultOutputPath(false) = %q, want run.mzpeak", got)
	}
	if got := defaultOutputPath("run.jsonl", true); got != "run.parquet" {
		t.Errorf("defaultOutputPath(true) = %q, want run.parquet", got)
	}
}

func TestDetectModality(t *testing.T) {
	spectra := syntheticSpectra(4)
	m := detectModality(spectra)
	if m.HasIonMobility() || m.HasImaging() {
		t.Errorf("synthetic LC-MS demo spectra should not declare ion mobility or imaging, got %v", m)
	}
}
