// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package cli

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/saferwall/mzpeak/internal/decode"
	"github.com/saferwall/mzpeak/internal/mzerr"
	"github.com/saferwall/mzpeak/internal/mzml"
)

// rawArrayJSON is the JSON-friendly shape of one undecoded numeric array,
// exactly what the (out-of-scope, spec.md §1) XML tokenizer is assumed to
// hand the in-scope binary decoder: base64 text plus its encoding and
// compression annotation. convert's input file is a sequence of these,
// one JSON object per line, standing in for the tokenizer's output stream.
type rawArrayJSON struct {
	Data               string `json:"data"`
	Encoding           string `json:"encoding"`
	Compression        string `json:"compression"`
	DefaultArrayLength int    `json:"default_array_length"`
}

type rawPrecursorJSON struct {
	MZ                   float64 `json:"mz"`
	Charge               int16   `json:"charge"`
	Intensity            float32 `json:"intensity"`
	IsolationWindowLower float32 `json:"isolation_window_lower"`
	IsolationWindowUpper float32 `json:"isolation_window_upper"`
	CollisionEnergy      float32 `json:"collision_energy"`
}

type rawPixelJSON struct {
	X, Y, Z int32
	HasZ    bool `json:"has_z"`
}

type rawSpectrumJSON struct {
	ID               string             `json:"id"`
	Index            int                `json:"index"`
	MSLevel          int16              `json:"ms_level"`
	Polarity         int8               `json:"polarity"`
	RetentionTime    float32            `json:"retention_time"`
	Precursor        *rawPrecursorJSON  `json:"precursor,omitempty"`
	Pixel            *rawPixelJSON      `json:"pixel,omitempty"`
	MZArray          rawArrayJSON       `json:"mz_array"`
	IntensityArray   rawArrayJSON       `json:"intensity_array"`
	IonMobilityArray *rawArrayJSON      `json:"ion_mobility_array,omitempty"`
	InjectionTime    *float32           `json:"injection_time,omitempty"`
}

func parseEncoding(s string) (decode.Encoding, error) {
	switch s {
	case "float32":
		return decode.Float32, nil
	case "float64", "":
		return decode.Float64, nil
	default:
		return 0, mzerr.Field("encoding", "unrecognised array encoding "+s)
	}
}

func parseCompression(s string) (decode.Compression, error) {
	switch s {
	case "none", "":
		return decode.CompressionNone, nil
	case "zlib":
		return decode.CompressionZlib, nil
	case "numpress-linear":
		return decode.CompressionNumpressLinear, nil
	case "numpress-slof":
		return decode.CompressionNumpressSlof, nil
	case "numpress-pic":
		return decode.CompressionNumpressPic, nil
	default:
		return 0, mzerr.Field("compression", "unrecognised array compression "+s)
	}
}

func (a rawArrayJSON) toRaw() (mzml.RawArray, error) {
	enc, err := parseEncoding(a.Encoding)
	if err != nil {
		return mzml.RawArray{}, err
	}
	comp, err := parseCompression(a.Compression)
	if err != nil {
		return mzml.RawArray{}, err
	}
	return mzml.RawArray{
		Data:               []byte(a.Data),
		Encoding:           enc,
		Compression:        comp,
		DefaultArrayLength: a.DefaultArrayLength,
	}, nil
}

func (s rawSpectrumJSON) toRaw() (mzml.RawSpectrum, error) {
	mz, err := s.MZArray.toRaw()
	if err != nil {
		return mzml.RawSpectrum{}, err
	}
	in, err := s.IntensityArray.toRaw()
	if err != nil {
		return mzml.RawSpectrum{}, err
	}
	r := mzml.RawSpectrum{
		ID:             s.ID,
		Index:          s.Index,
		MSLevel:        s.MSLevel,
		Polarity:       s.Polarity,
		RetentionTime:  s.RetentionTime,
		MZArray:        mz,
		IntensityArray: in,
		InjectionTime:  s.InjectionTime,
	}
	if s.IonMobilityArray != nil {
		im, err := s.IonMobilityArray.toRaw()
		if err != nil {
			return mzml.RawSpectrum{}, err
		}
		r.IonMobilityArray = &im
	}
	if s.Precursor != nil {
		r.Precursor = &mzml.RawPrecursor{
			MZ:                   s.Precursor.MZ,
			Charge:               s.Precursor.Charge,
			Intensity:            s.Precursor.Intensity,
			IsolationWindowLower: s.Precursor.IsolationWindowLower,
			IsolationWindowUpper: s.Precursor.IsolationWindowUpper,
			CollisionEnergy:      s.Precursor.CollisionEnergy,
		}
	}
	if s.Pixel != nil {
		r.Pixel = &mzml.RawPixel{X: s.Pixel.X, Y: s.Pixel.Y, Z: s.Pixel.Z, HasZ: s.Pixel.HasZ}
	}
	return r, nil
}

// readRawSpectra decodes a newline-delimited JSON stream of rawSpectrumJSON
// records into mzml.RawSpectrum values.
func readRawSpectra(r io.Reader) ([]mzml.RawSpectrum, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	var out []mzml.RawSpectrum
	for {
		var rec rawSpectrumJSON
		err := dec.Decode(&rec)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, mzerr.Wrap(mzerr.KindMetadata, "parse raw spectrum stream", err)
		}
		raw, err := rec.toRaw()
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}
