// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saferwall/mzpeak/internal/ingest"
)

var demoSpectrumCount int

var demoCmd = &cobra.Command{
	Use:   "demo <output>",
	Short: "Synthesise a mock LC-MS run and write it as an mzPeak dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().IntVar(&demoSpectrumCount, "spectra", 200, "number of synthetic spectra to generate")
}

// syntheticSpectra generates a deterministic mock LC-MS run: alternating
// MS1/MS2 scans, a Gaussian-ish elution profile, and a handful of peaks per
// spectrum, standing in for a real mzML/imzML source decoder.
func syntheticSpectra(n int) []*ingest.IngestSpectrum {
	out := make([]*ingest.IngestSpectrum, 0, n)
	for i := 0; i < n; i++ {
		rt := float32(i) * 0.5
		level := int16(1)
		var precursor *ingest.Precursor
		if i%4 == 3 {
			level = 2
			precursor = &ingest.Precursor{
				MZ:                   500.25,
				Charge:               2,
				Intensity:            12000,
				IsolationWindowLower: 1.0,
				IsolationWindowUpper: 1.0,
				CollisionEnergy:      28,
			}
		}

		const peaksPerSpectrum = 8
		mz := make([]float64, peaksPerSpectrum)
		intensity := make([]float32, peaksPerSpectrum)
		for j := 0; j < peaksPerSpectrum; j++ {
			mz[j] = 300.0 + float64(j)*50.0
			elution := math.Exp(-math.Pow(float64(i)-float64(n)/2, 2) / (2 * 900))
			intensity[j] = float32(1000.0*elution) + float32(j*10)
		}

		out = append(out, &ingest.IngestSpectrum{
			SpectrumID:    int64(i),
			ScanNumber:    int64(i + 1),
			MSLevel:       level,
			RetentionTime: rt,
			Polarity:      1,
			Peaks:         ingest.Peaks{MZ: mz, Intensity: intensity},
			Precursor:     precursor,
		})
	}
	return out
}

func runDemo(cmd *cobra.Command, args []string) error {
	output := args[0]
	spectra := syntheticSpectra(demoSpectrumCount)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stats, err := convertAndWrite(ctx, spectra, output, false)
	if err != nil {
		return err
	}
	log.Info().
		Int64("spectra", stats.SpectrumCount).
		Int64("peaks", stats.PeakCount).
		Str("output", output).
		Msg("demo dataset written")
	return nil
}
