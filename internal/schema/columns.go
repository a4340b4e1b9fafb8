// Copyright 2024 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package schema declares mzPeak's two schema generations (v1 "long" and
// v2 normalised), their HUPO-PSI controlled-vocabulary annotations, and the
// Parquet encoding policy derived from them. It has no write-path or
// read-path logic of its own; C4/C5/C6/C7 all import it as the single
// source of truth for column names, types and CV accessions.
package schema

// Column name constants, shared between the v1 long table and the v2
// spectra/peaks tables. Mirrors the original implementation's schema
// column-name table one for one.
const (
	SpectrumID            = "spectrum_id"
	ScanNumber             = "scan_number"
	MSLevel                = "ms_level"
	RetentionTime          = "retention_time"
	Polarity               = "polarity"
	MZ                     = "mz"
	Intensity              = "intensity"
	IonMobility            = "ion_mobility"
	PrecursorMZ            = "precursor_mz"
	PrecursorCharge        = "precursor_charge"
	PrecursorIntensity     = "precursor_intensity"
	IsolationWindowLower   = "isolation_window_lower"
	IsolationWindowUpper   = "isolation_window_upper"
	CollisionEnergy        = "collision_energy"
	TotalIonCurrent        = "total_ion_current"
	BasePeakMZ             = "base_peak_mz"
	BasePeakIntensity      = "base_peak_intensity"
	InjectionTime          = "injection_time"
	PixelX                 = "pixel_x"
	PixelY                 = "pixel_y"
	PixelZ                 = "pixel_z"

	// v2-only spectra table columns.
	PeakOffset = "peak_offset"
	PeakCount  = "peak_count"

	// Chromatogram / mobilogram companion columns.
	ChromatogramID   = "chromatogram_id"
	ChromatogramType = "chromatogram_type"
	TimeArray        = "time_array"
	IntensityArray   = "intensity_array"
	MobilogramID     = "mobilogram_id"
	MobilityArray    = "mobility_array"
)

// Format identifiers embedded in the container mimetype entry and footer.
const (
	FormatVersionV1 = "1.0.0"
	FormatVersionV2 = "2.0"
	SchemaVersionV2 = "2.0"

	MimeTypeV1 = "application/vnd.mzpeak"
	MimeTypeV2 = "application/vnd.mzpeak+v2"
)

// Footer key/value metadata dictionary keys (§6).
const (
	KeyFormatVersion       = "mzpeak:format_version"
	KeyConversionTimestamp = "mzpeak:conversion_timestamp"
	KeyConverterInfo       = "mzpeak:converter_info"
	KeySDRFMetadata        = "mzpeak:sdrf_metadata"
	KeyInstrumentConfig    = "mzpeak:instrument_config"
	KeyLCConfig            = "mzpeak:lc_config"
	KeyRunParameters       = "mzpeak:run_parameters"
	KeySourceFile          = "mzpeak:source_file"
	KeyProcessingHistory   = "mzpeak:processing_history"
	KeyVendorHints         = "mzpeak:vendor_hints"
	KeyRawFileChecksum     = "mzpeak:raw_file_checksum"
	KeyImagingMetadata     = "mzpeak:imaging_metadata"
)

// CVAccession maps a column name to its HUPO-PSI-MS (or imaging-MS)
// controlled-vocabulary accession. These round-trip through the Parquet
// field metadata and are re-checked byte for byte in the validator (C7).
var CVAccession = map[string]string{
	SpectrumID:           "MS:1000796",
	ScanNumber:           "MS:1000797",
	MSLevel:              "MS:1000511",
	RetentionTime:        "MS:1000016",
	Polarity:             "MS:1000465",
	MZ:                   "MS:1000040",
	Intensity:            "MS:1000042",
	IonMobility:          "MS:1002476",
	PrecursorMZ:          "MS:1000744",
	PrecursorCharge:      "MS:1000041",
	PrecursorIntensity:   "MS:1000042",
	IsolationWindowLower: "MS:1000828",
	IsolationWindowUpper: "MS:1000829",
	CollisionEnergy:      "MS:1000045",
	TotalIonCurrent:      "MS:1000285",
	BasePeakMZ:           "MS:1000504",
	BasePeakIntensity:    "MS:1000505",
	InjectionTime:        "MS:1000927",
	PixelX:               "IMS:1000050",
	PixelY:               "IMS:1000051",
	PixelZ:               "IMS:1000052",
}

// Modality enumerates the optional dimensions a dataset carries.
type Modality string

const (
	ModalityLCMS    Modality = "lc-ms"
	ModalityLCIMSMS Modality = "lc-ims-ms"
	ModalityMSI     Modality = "msi"
	ModalityMSIIMS  Modality = "msi-ims"
)

// HasIonMobility reports whether m carries the ion-mobility dimension.
func (m Modality) HasIonMobility() bool {
	return m == ModalityLCIMSMS || m == ModalityMSIIMS
}

// HasImaging reports whether m carries spatial pixel coordinates.
func (m Modality) HasImaging() bool {
	return m == ModalityMSI || m == ModalityMSIIMS
}

// ModalityFromFlags derives the Modality from the two orthogonal flags.
func ModalityFromFlags(hasIonMobility, hasImaging bool) Modality {
	switch {
	case hasIonMobility && hasImaging:
		return ModalityMSIIMS
	case hasImaging:
		return ModalityMSI
	case hasIonMobility:
		return ModalityLCIMSMS
	default:
		return ModalityLCMS
	}
}

// DictionaryColumns lists the scalar spectrum-metadata columns for which
// dictionary + RLE encoding is enabled (§4.1 Encoding policy).
var DictionaryColumns = []string{
	SpectrumID, ScanNumber, MSLevel, RetentionTime, Polarity,
	PrecursorMZ, PrecursorCharge, PrecursorIntensity,
	IsolationWindowLower, IsolationWindowUpper, CollisionEnergy,
	TotalIonCurrent, BasePeakMZ, BasePeakIntensity, InjectionTime,
	PixelX, PixelY, PixelZ,
}

// ByteStreamSplitColumns lists the high-cardinality floating-point signal
// columns for which dictionary encoding is disabled and byte-stream-split
// is applied when the writer's configuration requests it.
var ByteStreamSplitColumns = []string{MZ, Intensity, IonMobility}
