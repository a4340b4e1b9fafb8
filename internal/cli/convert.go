// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/saferwall/mzpeak/internal/dataset"
	"github.com/saferwall/mzpeak/internal/ingest"
	"github.com/saferwall/mzpeak/internal/mzml"
	"github.com/saferwall/mzpeak/internal/schema"
)

var (
	convertLegacy           bool
	convertCompressionLevel int
	convertRowGroupSize     int64
	convertBatchSize        int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input> [<output>]",
	Short: "Convert a raw spectrum stream into an mzPeak dataset",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().BoolVar(&convertLegacy, "legacy", false, "write the v1 long-table schema instead of v2 (still packaged as a container archive, not a bare Parquet file)")
	convertCmd.Flags().IntVar(&convertCompressionLevel, "compression-level", -1, "compression preset: 0=fast-write, 9=archival (default), 22=max-compression")
	convertCmd.Flags().Int64Var(&convertRowGroupSize, "row-group-size", 0, "override the writer's row-group size")
	convertCmd.Flags().IntVar(&convertBatchSize, "batch-size", mzml.DefaultBatchSize, "spectra decoded per parallel batch")
}

func encodingPolicyFromFlags() schema.EncodingPolicy {
	var policy schema.EncodingPolicy
	switch {
	case convertCompressionLevel < 0:
		policy = schema.DefaultEncodingPolicy()
	case convertCompressionLevel == 0:
		policy = schema.FastWritePolicy()
	case convertCompressionLevel >= 22:
		policy = schema.MaxCompressionPolicy()
	default:
		policy = schema.DefaultEncodingPolicy()
	}
	if convertRowGroupSize > 0 {
		policy.RowGroupSize = convertRowGroupSize
	}
	return policy
}

func defaultOutputPath(input string, legacy bool) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if legacy {
		return base + ".parquet"
	}
	return base + ".mzpeak"
}

// converterInfo embeds a per-run identifier alongside the software name and
// Go runtime version, so two conversions of the same input can be told
// apart in the footer's mzpeak:converter_info key.
func converterInfo() string {
	return fmt.Sprintf("mzpeak/%s (%s; run=%s)", schema.FormatVersionV2, runtime.Version(), uuid.NewString())
}

func detectModality(spectra []*ingest.IngestSpectrum) schema.Modality {
	var hasIM, hasImaging bool
	for _, s := range spectra {
		if s.Peaks.IonMobility != nil {
			hasIM = true
		}
		if s.Pixel != nil {
			hasImaging = true
		}
	}
	return schema.ModalityFromFlags(hasIM, hasImaging)
}

func decodeAll(ctx context.Context, raws []mzml.RawSpectrum, batchSize int) ([]*ingest.IngestSpectrum, error) {
	if batchSize <= 0 {
		batchSize = mzml.DefaultBatchSize
	}
	out := make([]*ingest.IngestSpectrum, 0, len(raws))
	for start := 0; start < len(raws); start += batchSize {
		end := start + batchSize
		if end > len(raws) {
			end = len(raws)
		}
		decoded, err := mzml.DecodeBatch(ctx, raws[start:end], 0)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
		log.Debug().Int("decoded", len(out)).Int("total", len(raws)).Msg("decode batch complete")
	}
	return out, nil
}

func convertAndWrite(ctx context.Context, spectra []*ingest.IngestSpectrum, output string, legacy bool) (dataset.Stats, error) {
	modality := detectModality(spectra)
	converter := ingest.NewConverter(ingest.Modality{HasIonMobility: modality.HasIonMobility(), HasImaging: modality.HasImaging()})
	for _, s := range spectra {
		if err := converter.Convert(s); err != nil {
			return dataset.Stats{}, err
		}
	}
	if n := converter.NonmonotonicRetentionTimeCount(); n > 0 {
		log.Warn().Int("count", n).Msg("non-monotonic retention time observed during conversion")
	}

	policy := encodingPolicyFromFlags()
	meta := dataset.Metadata{
		FormatVersion:       schema.FormatVersionV2,
		ConversionTimestamp: time.Now().UTC(),
		ConverterInfo:       converterInfo(),
	}

	if legacy {
		meta.FormatVersion = schema.FormatVersionV1
		p := dataset.NewPackagerV1(policy, meta)
		if err := p.WriteSpectra(spectra); err != nil {
			return dataset.Stats{}, err
		}
		return p.Close(output, dataset.LayoutContainer)
	}

	p := dataset.NewPackagerV2(policy, meta, modality, meta.ConverterInfo)
	if err := p.WriteSpectra(spectra); err != nil {
		return dataset.Stats{}, err
	}
	return p.Close(output, dataset.LayoutContainer)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := ""
	if len(args) == 2 {
		output = args[1]
	} else {
		output = defaultOutputPath(input, convertLegacy)
	}

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	raws, err := readRawSpectra(f)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(raws)).Str("input", input).Msg("read raw spectrum stream")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	spectra, err := decodeAll(ctx, raws, convertBatchSize)
	if err != nil {
		return err
	}

	stats, err := convertAndWrite(ctx, spectra, output, convertLegacy)
	if err != nil {
		return err
	}
	log.Info().
		Int64("spectra", stats.SpectrumCount).
		Int64("peaks", stats.PeakCount).
		Str("output", output).
		Msg("conversion complete")
	return nil
}
