// Package av1an provides a Go library for chunked, parallel AV1/AVC/HEVC
// video encoding.
//
// av1an is an opinionated ffmpeg/ffms2 wrapper that splits a source at
// scene boundaries, encodes each chunk independently across a worker
// pool (optionally searching for a target quality score per chunk), and
// remuxes the results back into a single output file.
//
// Basic usage:
//
//	enc, err := av1an.New(
//	    av1an.WithPreset(av1an.PresetGrain),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := enc.Encode(ctx, "input.mkv", "output/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Encoded: %s, reduction: %.1f%%\n",
//	    result.OutputFile, result.SizeReductionPercent)
package av1an

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/av1an-go/av1an/internal/config"
	"github.com/av1an-go/av1an/internal/discovery"
	"github.com/av1an-go/av1an/internal/driver"
	"github.com/av1an-go/av1an/internal/reporter"
	"github.com/av1an-go/av1an/internal/util"
	"github.com/av1an-go/av1an/internal/validation"
)

// Re-export preset types so callers never need to import internal/config.
type Preset = config.Preset

const (
	PresetGrain = config.PresetGrain
	PresetClean = config.PresetClean
	PresetQuick = config.PresetQuick
)

// ParsePreset converts a preset string to a Preset value.
// Valid values are "grain", "clean", and "quick" (case-insensitive).
func ParsePreset(s string) (Preset, error) {
	return config.ParsePreset(s)
}

// ParseCRF parses a --crf flag value: either a single quantizer applied to
// every resolution tier ("27") or a comma-separated SD,HD,UHD triple
// ("25,27,29").
func ParseCRF(s string) (sd, hd, uhd uint8, err error) {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	switch len(parts) {
	case 1:
		v, err := parseCRFValue(parts[0])
		if err != nil {
			return 0, 0, 0, err
		}
		return v, v, v, nil
	case 3:
		sd, err := parseCRFValue(parts[0])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("sd: %w", err)
		}
		hd, err := parseCRFValue(parts[1])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("hd: %w", err)
		}
		uhd, err := parseCRFValue(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("uhd: %w", err)
		}
		return sd, hd, uhd, nil
	default:
		return 0, 0, 0, fmt.Errorf("crf: expected one value or three comma-separated values, got %q", s)
	}
}

func parseCRFValue(s string) (uint8, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid crf %q: %w", s, err)
	}
	if n < 0 || n > 63 {
		return 0, fmt.Errorf("crf must be 0-63, got %d", n)
	}
	return uint8(n), nil
}

// Encoder is the main entry point for video encoding.
type Encoder struct {
	config *config.Config
}

// Result contains the result of a single file encode.
type Result struct {
	OutputFile           string
	OriginalSize         uint64
	EncodedSize          uint64
	SizeReductionPercent float64
	ValidationPassed     bool
}

// BatchResult contains the result of a batch encode.
type BatchResult struct {
	Results               []Result
	SuccessfulCount       int
	TotalFiles            int
	TotalSizeReduction    float64
	ValidationPassedCount int
}

// Option configures the encoder.
type Option func(*config.Config)

// New creates a new Encoder with the given options.
func New(opts ...Option) (*Encoder, error) {
	cfg := config.NewConfig(".", ".", ".")

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Encoder{config: cfg}, nil
}

// WithPreset applies a named parameter bundle (see GetPresetValues).
func WithPreset(p Preset) Option {
	return func(c *config.Config) { c.ApplyPreset(p) }
}

// WithEncoder selects the encoder backend (aom, rav1e, svt-av1, vpx,
// x264, x265).
func WithEncoder(name string) Option {
	return func(c *config.Config) { c.Encoder = name }
}

// WithCRF sets the CRF quality by resolution tier.
func WithCRF(sd, hd, uhd uint8) Option {
	return func(c *config.Config) {
		c.CRFSD = sd
		c.CRFHD = hd
		c.CRFUHD = uhd
	}
}

// WithTargetQuality enables per-chunk target-quality search against the
// named metric (vmaf, ssimulacra2, butteraugli, xpsnr), searching for the
// quantizer that produces the given score.
func WithTargetQuality(metric string, target float64) Option {
	return func(c *config.Config) {
		c.TargetMetric = metric
		c.TargetQuality = &target
	}
}

// WithZonesFile sets the per-range parameter override file (see
// internal/zones for its format).
func WithZonesFile(path string) Option {
	return func(c *config.Config) { c.ZonesFile = path }
}

// WithWorkers overrides the automatically sized worker pool.
func WithWorkers(n int) Option {
	return func(c *config.Config) { c.Workers = n }
}

// WithDisableAutocrop disables automatic black bar detection.
func WithDisableAutocrop() Option {
	return func(c *config.Config) { c.CropMode = "none" }
}

// WithKeep retains the working directory after a successful encode.
func WithKeep() Option {
	return func(c *config.Config) { c.Keep = true }
}

// WithFilmGrain enables SVT-AV1 film grain synthesis with the given
// strength. Strength should be 0-50, where higher values add more
// synthetic grain.
func WithFilmGrain(strength uint8) Option {
	return func(c *config.Config) { c.SVTAV1FilmGrain = &strength }
}

// WithFilmGrainDenoise sets whether to denoise when using film grain
// synthesis. When true, the source is denoised before adding synthetic
// grain.
func WithFilmGrainDenoise(enable bool) Option {
	return func(c *config.Config) { c.SVTAV1FilmGrainDenoise = &enable }
}

// EncodeWithReporter encodes a single video file, reporting every phase
// through rep. A nil rep discards all progress updates. The output
// filename is derived from the input filename inside outputDir; use
// EncodeToFile to pin an exact output path.
func (e *Encoder) EncodeWithReporter(ctx context.Context, input, outputDir string, rep reporter.Reporter) (*Result, error) {
	if err := util.EnsureDirectory(outputDir); err != nil {
		return nil, fmt.Errorf("av1an: create output directory: %w", err)
	}
	outputPath := util.ResolveOutputPath(input, outputDir, "")
	return e.encode(ctx, input, outputPath, rep)
}

// EncodeToFile encodes a single video file to an exact output path,
// bypassing filename derivation. outputPath's parent directory must
// already exist.
func (e *Encoder) EncodeToFile(ctx context.Context, input, outputPath string, rep reporter.Reporter) (*Result, error) {
	return e.encode(ctx, input, outputPath, rep)
}

func (e *Encoder) encode(ctx context.Context, input, outputPath string, rep reporter.Reporter) (*Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	cfg := *e.config
	cfg.OutputDir = filepath.Dir(outputPath)

	inputSize, err := util.GetFileSize(input)
	if err != nil {
		return nil, fmt.Errorf("av1an: stat input: %w", err)
	}

	if err := driver.Run(ctx, &cfg, input, outputPath, rep); err != nil {
		return nil, err
	}

	outputSize, err := util.GetFileSize(outputPath)
	if err != nil {
		return nil, fmt.Errorf("av1an: stat output: %w", err)
	}

	valResult, valErr := validation.ValidateOutputVideo(input, outputPath, validation.Options{})
	passed := valErr == nil && valResult.IsValid()
	if valErr == nil {
		rep.ValidationComplete(reporter.ValidationSummary{
			Passed: passed,
			Steps:  toReporterSteps(valResult.GetValidationSteps()),
		})
	}

	return &Result{
		OutputFile:           outputPath,
		OriginalSize:         inputSize,
		EncodedSize:          outputSize,
		SizeReductionPercent: util.CalculateSizeReduction(inputSize, outputSize),
		ValidationPassed:     passed,
	}, nil
}

// Encode encodes a single video file with progress discarded.
func (e *Encoder) Encode(ctx context.Context, input, outputDir string) (*Result, error) {
	return e.EncodeWithReporter(ctx, input, outputDir, reporter.NullReporter{})
}

// EncodeBatch encodes multiple video files, reporting batch-level
// progress through rep in addition to each file's own phases.
func (e *Encoder) EncodeBatch(ctx context.Context, inputs []string, outputDir string, rep reporter.Reporter) (*BatchResult, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	rep.BatchStarted(reporter.BatchStartInfo{TotalFiles: len(inputs), FileList: inputs, OutputDir: outputDir})

	batch := &BatchResult{TotalFiles: len(inputs)}
	var totalInputSize, totalOutputSize uint64

	for i, input := range inputs {
		rep.FileProgress(reporter.FileProgressContext{CurrentFile: i + 1, TotalFiles: len(inputs)})

		result, err := e.EncodeWithReporter(ctx, input, outputDir, rep)
		if err != nil {
			rep.Error(reporter.ReporterError{Title: "Encode failed", Message: err.Error(), Context: input})
			continue
		}

		batch.Results = append(batch.Results, *result)
		batch.SuccessfulCount++
		totalInputSize += result.OriginalSize
		totalOutputSize += result.EncodedSize
		if result.ValidationPassed {
			batch.ValidationPassedCount++
		}
	}

	batch.TotalSizeReduction = util.CalculateSizeReduction(totalInputSize, totalOutputSize)

	rep.BatchComplete(reporter.BatchSummary{
		SuccessfulCount:       batch.SuccessfulCount,
		TotalFiles:            batch.TotalFiles,
		TotalOriginalSize:     totalInputSize,
		TotalEncodedSize:      totalOutputSize,
		ValidationPassedCount: batch.ValidationPassedCount,
	})

	return batch, nil
}

// FindVideos finds video files in a directory.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}

func toReporterSteps(steps []validation.ValidationStep) []reporter.ValidationStep {
	out := make([]reporter.ValidationStep, len(steps))
	for i, s := range steps {
		out[i] = reporter.ValidationStep{Name: s.Name, Passed: s.Passed, Details: s.Details}
	}
	return out
}
