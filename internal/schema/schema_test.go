// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package schema

import "testing"

func TestModalityFromFlags(t *testing.T) {
	cases := []struct {
		im, imaging bool
		want        Modality
	}{
		{false, false, ModalityLCMS},
		{true, false, ModalityLCIMSMS},
		{false, true, ModalityMSI},
		{true, true, ModalityMSIIMS},
	}
	for _, c := range cases {
		got := ModalityFromFlags(c.im, c.imaging)
		if got != c.want {
			t.Errorf("ModalityFromFlags(%v, %v) = %v, want %v", c.im, c.imaging, got, c.want)
		}
		if got.HasIonMobility() != c.im {
			t.Errorf("%v.HasIonMobility() = %v, want %v", got, got.HasIonMobility(), c.im)
		}
		if got.HasImaging() != c.imaging {
			t.Errorf("%v.HasImaging() = %v, want %v", got, got.HasImaging(), c.imaging)
		}
	}
}

func TestCVAccessionCoversDictionaryAndSplitColumns(t *testing.T) {
	for _, col := range DictionaryColumns {
		if _, ok := CVAccession[col]; !ok {
			t.Errorf("DictionaryColumns column %q has no CVAccession entry", col)
		}
	}
	for _, col := range ByteStreamSplitColumns {
		if _, ok := CVAccession[col]; !ok {
			t.Errorf("ByteStreamSplitColumns column %q has no CVAccession entry", col)
		}
	}
}

func TestEncodingPolicyPresetsDiffer(t *testing.T) {
	def := DefaultEncodingPolicy()
	fast := FastWritePolicy()
	max := MaxCompressionPolicy()

	if def.Preset == fast.Preset || def.Preset == max.Preset || fast.Preset == max.Preset {
		t.Fatal("the three presets must use distinct CompressionPreset values")
	}
	if fast.RowGroupSize >= def.RowGroupSize || def.RowGroupSize >= max.RowGroupSize {
		t.Errorf("row group sizes should increase fast < default < max, got %d, %d, %d",
			fast.RowGroupSize, def.RowGroupSize, max.RowGroupSize)
	}
}

func TestBuildWriterPropertiesDoesNotPanic(t *testing.T) {
	for _, policy := range []EncodingPolicy{DefaultEncodingPolicy(), FastWritePolicy(), MaxCompressionPolicy()} {
		props := BuildWriterProperties(policy, map[string]string{KeyFormatVersion: FormatVersionV2})
		if props == nil {
			t.Fatal("BuildWriterProperties returned nil")
		}
	}
}
