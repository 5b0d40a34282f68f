// Package config provides configuration types and defaults for av1an.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPreset indicates an unknown preset name was provided.
	ErrInvalidPreset = errors.New("invalid preset")

	// ErrInvalidCRF indicates a CRF value outside the valid 0-63 range.
	ErrInvalidCRF = errors.New("CRF value out of range")

	// ErrInvalidSVTPreset indicates an SVT-AV1 preset outside the valid 0-13 range.
	ErrInvalidSVTPreset = errors.New("SVT-AV1 preset out of range")

	// ErrInvalidFilmGrain indicates film grain denoise was set without film grain.
	ErrInvalidFilmGrain = errors.New("film grain configuration invalid")

	// ErrInvalidEncoder indicates an unrecognized encoder backend name.
	ErrInvalidEncoder = errors.New("unknown encoder backend")

	// ErrInvalidChunkOrder indicates an unrecognized chunk-order policy name.
	ErrInvalidChunkOrder = errors.New("unknown chunk order")
)
