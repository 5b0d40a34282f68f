// Package config provides configuration types and defaults for av1an.
package config

import (
	"fmt"
	"strings"

	"github.com/av1an-go/av1an/internal/chunk"
	"github.com/av1an-go/av1an/internal/tq"
)

// Default constants
const (
	// DefaultCRFSD is the default CRF quality setting for SD content (<1920 width).
	DefaultCRFSD uint8 = 25

	// DefaultCRFHD is the default CRF quality setting for HD content (>=1920, <3840 width).
	DefaultCRFHD uint8 = 27

	// DefaultCRFUHD is the default CRF quality setting for UHD content (>=3840 width).
	DefaultCRFUHD uint8 = 29

	// HDWidthThreshold is the minimum width for HD resolution.
	HDWidthThreshold uint32 = 1920

	// UHDWidthThreshold is the minimum width for UHD resolution.
	UHDWidthThreshold uint32 = 3840

	// DefaultSVTAV1Preset is the SVT-AV1 preset (0-13, lower is slower/better).
	DefaultSVTAV1Preset uint8 = 6

	// DefaultSVTAV1Tune is the SVT-AV1 tune parameter.
	DefaultSVTAV1Tune uint8 = 0

	// DefaultSVTAV1ACBias is the SVT-AV1 ac-bias parameter.
	DefaultSVTAV1ACBias float32 = 0.1

	// DefaultSVTAV1EnableVarianceBoost is whether variance boost is enabled.
	DefaultSVTAV1EnableVarianceBoost bool = false

	// DefaultSVTAV1VarianceBoostStrength is the variance boost strength.
	DefaultSVTAV1VarianceBoostStrength uint8 = 0

	// DefaultSVTAV1VarianceOctile is the variance octile parameter.
	DefaultSVTAV1VarianceOctile uint8 = 0

	// DefaultCropMode is the crop mode for the main encode.
	DefaultCropMode string = "auto"

	// DefaultEncodeCooldownSecs is the cooldown period between encodes.
	DefaultEncodeCooldownSecs uint64 = 3

	// ProgressLogIntervalPercent is the progress logging interval.
	ProgressLogIntervalPercent uint8 = 5

	// DefaultChunkDuration is the default chunk duration in seconds for non-4K content.
	DefaultChunkDuration float64 = 10.0

	// DefaultChunkDuration4K is the default chunk duration in seconds for 4K content.
	DefaultChunkDuration4K float64 = 20.0

	// DefaultThreadsPerWorker is the default number of threads per encoder worker.
	// 2 threads provides good balance: 16 workers x 2 threads = 32 total on a typical CPU.
	// Can be increased (4-8) for fewer, more powerful workers.
	DefaultThreadsPerWorker int = 2

	// DefaultEncoder is the encoder backend used when none is specified.
	DefaultEncoder string = "svt-av1"

	// DefaultChunkMethod is the --chunk-method default. The value is only
	// stored in Config.ChunkMethod; frames are always decoded through
	// internal/ffms.
	DefaultChunkMethod string = "lsmash"

	// DefaultChunkOrder is the chunk dispatch order used when none is specified.
	DefaultChunkOrder string = "long-to-short"

	// DefaultConcatStrategy is the concat/mux strategy used when none is specified.
	DefaultConcatStrategy string = "concat"

	// DefaultPasses is the number of encoder passes for the final (non-probe) encode.
	DefaultPasses int = 1

	// DefaultMinSceneLen is the minimum scene length in frames the split
	// planner will honor.
	DefaultMinSceneLen int = 24

	// DefaultExtraSplit is the maximum scene length in frames before a
	// forced extra split point is inserted, 0 disables forced splitting.
	DefaultExtraSplit int = 0

	// DefaultProbes is the maximum number of probe encodes per chunk during
	// target-quality search.
	DefaultProbes int = 4

	// DefaultProbingRate is the frame sub-sample rate used while probing.
	DefaultProbingRate int = 1

	// DefaultProbingSpeed is the encoder speed preset used for probe encodes.
	DefaultProbingSpeed string = "veryfast"

	// DefaultVMAFModelPath is the default for Config.VMAFModelPath. The
	// vmaf metric in internal/metric does not pass a model path to the
	// libvmaf filter, so this value has no effect on scoring.
	DefaultVMAFModelPath string = "/usr/share/model/vmaf_v0.6.1.pkl"
)

// encoderQuantizerFlag maps each supported encoder backend to the CLI flag
// it accepts for a fixed quantizer value.
// internal/encoder.ByName resolves the same names to concrete Adapters.
var encoderQuantizerFlag = map[string]string{
	"aom":     "--cq-level",
	"rav1e":   "--quantizer",
	"svt-av1": "--crf",
	"vpx":     "--cq-level",
	"x264":    "--crf",
	"x265":    "--crf",
}

// Preset is a named bundle of encoder parameters, a convenience layer over
// the individual SVT-AV1 fields for users who don't want to tune each knob.
type Preset string

// Named presets. Grain favors quality retention on grainy sources; Clean
// favors a faster preset for already-clean sources; Quick trades quality
// for turnaround time.
const (
	PresetGrain Preset = "grain"
	PresetClean Preset = "clean"
	PresetQuick Preset = "quick"
)

// ParsePreset parses a --preset value, case-insensitively.
func ParsePreset(s string) (Preset, error) {
	switch strings.ToLower(s) {
	case "grain":
		return PresetGrain, nil
	case "clean":
		return PresetClean, nil
	case "quick":
		return PresetQuick, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPreset, s)
	}
}

// PresetValues holds the concrete parameter bundle a Preset expands to.
type PresetValues struct {
	CRFSD        uint8
	CRFHD        uint8
	CRFUHD       uint8
	SVTAV1Preset uint8
}

// GetPresetValues returns the parameter bundle for a named preset.
func GetPresetValues(p Preset) PresetValues {
	switch p {
	case PresetGrain:
		return PresetValues{CRFSD: 22, CRFHD: 24, CRFUHD: 26, SVTAV1Preset: 4}
	case PresetClean:
		return PresetValues{CRFSD: 26, CRFHD: 28, CRFUHD: 30, SVTAV1Preset: 6}
	case PresetQuick:
		return PresetValues{CRFSD: 30, CRFHD: 32, CRFUHD: 34, SVTAV1Preset: 10}
	default:
		return PresetValues{CRFSD: DefaultCRFSD, CRFHD: DefaultCRFHD, CRFUHD: DefaultCRFUHD, SVTAV1Preset: DefaultSVTAV1Preset}
	}
}

// AutoParallelConfig returns optimal workers and buffer settings.
// Workers default high; CapWorkers reduces based on resolution and memory.
// Buffer: fixed prefetch amount to keep workers fed.
func AutoParallelConfig() (workers, buffer int) {
	// Default to maximum possible; CapWorkers will reduce based on
	// actual resolution and available memory at encode time
	workers = 24 // Will be capped down for higher resolutions
	buffer = 4   // Prefetch buffer to keep workers fed
	return workers, buffer
}

// Config holds all configuration for video processing.
type Config struct {
	// Input/output paths
	InputDir  string
	OutputDir string
	LogDir    string
	TempDir   string // Optional, defaults to OutputDir

	// Applied preset, if any (set via ApplyPreset).
	AppliedPreset *Preset

	// Encoder backend selection (aom, rav1e, svt-av1, vpx, x264, x265).
	Encoder string

	// Quantizer is a fixed quantizer override for the selected encoder's
	// quantizer flag (see encoderQuantizerFlag). Nil means "derive from
	// CRFForWidth / the applied preset".
	Quantizer *float64

	// Passes is the number of encoder passes for the final encode (1 or 2).
	// Always clamped to 1 during target-quality probes.
	Passes int

	// SVT-AV1 parameters
	SVTAV1Preset                uint8
	SVTAV1Tune                  uint8
	SVTAV1ACBias                float32
	SVTAV1EnableVarianceBoost   bool
	SVTAV1VarianceBoostStrength uint8
	SVTAV1VarianceOctile        uint8

	// Optional filters and film grain
	VideoDenoiseFilter     string // Optional denoise filter (e.g., "hqdn3d=1.5:1.5:3:3")
	SVTAV1FilmGrain        *uint8 // Optional film grain synthesis strength
	SVTAV1FilmGrainDenoise *bool  // Optional film grain denoise toggle

	// Quality settings (CRF value 0-63) by resolution
	CRFSD  uint8 // CRF for SD content (<1920 width)
	CRFHD  uint8 // CRF for HD content (>=1920, <3840 width)
	CRFUHD uint8 // CRF for UHD content (>=3840 width)

	// Processing options
	CropMode           string // "auto" or "none"
	ResponsiveEncoding bool   // Reserve CPU threads for responsiveness
	EncodeCooldownSecs uint64 // Cooldown between batch encodes

	// ChunkMethod records the --chunk-method name; nothing reads it, and
	// frames are always decoded through internal/ffms (FFMS2).
	// MinSceneLen and ExtraSplit are the split-planner bounds.
	ChunkMethod  string
	MinSceneLen  int // --min-scene-len
	ExtraSplit   int // -x/--extra-split, 0 disables forced splitting

	// IgnoreFrameMismatch suppresses both the persisted-scene-file and
	// journal frame-count checks on resume, trusting the files on disk
	// over a recount against the current source.
	IgnoreFrameMismatch bool

	// Chunk dispatch order (see internal/chunk.Order) and concat/mux
	// strategy (see internal/concat.Strategy).
	ChunkOrder     string
	ConcatStrategy string

	// Per-range parameter overrides, parsed by internal/zones.
	ZonesFile string

	// Journal/resume behavior.
	Resume bool // Skip chunks already recorded as done in the journal.
	Keep   bool // Keep the working directory after a successful run.

	// Target-quality search. TargetQuality nil disables search and falls
	// back to the fixed Quantizer/CRFForWidth value.
	TargetQuality    *float64
	TargetMetric     string // vmaf, ssimulacra2, butteraugli, xpsnr
	Probes           int
	ProbingRate      int
	ProbingSpeed     string
	ProbeSlow        bool // use the final-encode params for probes too
	ProbingStatistic string
	MinQ, MaxQ       float64
	VMAFRes          string
	ProbeRes         string
	VMAFFilter       string
	VMAFModelPath    string

	// Parallel encoding options
	Workers          int // Number of parallel encoder workers
	ChunkBuffer      int // Extra chunks to buffer in memory
	ThreadsPerWorker int // Threads per encoder worker (SVT-AV1 --lp flag)

	// Chunk duration (set automatically based on resolution)
	ChunkDuration float64 // Chunk duration in seconds

	// SetThreadAffinity pins each worker's encoder subprocess to a
	// contiguous CPU set instead of letting the scheduler float it
	// across the whole machine. Silently has no effect on platforms
	// that don't support CPU affinity.
	SetThreadAffinity bool

	// Debug options
	Verbose bool // Enable verbose output
}

// NewConfig creates a new Config with default values.
func NewConfig(inputDir, outputDir, logDir string) *Config {
	workers, buffer := AutoParallelConfig()

	return &Config{
		InputDir:                    inputDir,
		OutputDir:                   outputDir,
		LogDir:                      logDir,
		Encoder:                     DefaultEncoder,
		Passes:                      DefaultPasses,
		SVTAV1Preset:                DefaultSVTAV1Preset,
		SVTAV1Tune:                  DefaultSVTAV1Tune,
		SVTAV1ACBias:                DefaultSVTAV1ACBias,
		SVTAV1EnableVarianceBoost:   DefaultSVTAV1EnableVarianceBoost,
		SVTAV1VarianceBoostStrength: DefaultSVTAV1VarianceBoostStrength,
		SVTAV1VarianceOctile:        DefaultSVTAV1VarianceOctile,
		CRFSD:                       DefaultCRFSD,
		CRFHD:                       DefaultCRFHD,
		CRFUHD:                      DefaultCRFUHD,
		CropMode:                    DefaultCropMode,
		ResponsiveEncoding:          false,
		EncodeCooldownSecs:          DefaultEncodeCooldownSecs,
		ChunkMethod:                 DefaultChunkMethod,
		MinSceneLen:                 DefaultMinSceneLen,
		ExtraSplit:                  DefaultExtraSplit,
		ChunkOrder:                  DefaultChunkOrder,
		ConcatStrategy:              DefaultConcatStrategy,
		Resume:                      true,
		TargetMetric:                "vmaf",
		Probes:                      DefaultProbes,
		ProbingRate:                 DefaultProbingRate,
		ProbingSpeed:                DefaultProbingSpeed,
		ProbingStatistic:            "auto",
		MinQ:                        8,
		MaxQ:                        48,
		VMAFModelPath:               DefaultVMAFModelPath,
		Workers:                     workers,
		ChunkBuffer:                 buffer,
		ThreadsPerWorker:            DefaultThreadsPerWorker,
		ChunkDuration:               DefaultChunkDuration,
	}
}

// ApplyPreset overwrites the CRF-by-resolution and SVT-AV1 preset fields
// with a named preset's bundle, and records which preset was applied.
func (c *Config) ApplyPreset(p Preset) {
	values := GetPresetValues(p)
	c.CRFSD = values.CRFSD
	c.CRFHD = values.CRFHD
	c.CRFUHD = values.CRFUHD
	c.SVTAV1Preset = values.SVTAV1Preset
	c.AppliedPreset = &p
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SVTAV1Preset > 13 {
		return fmt.Errorf("%w: svt_av1_preset must be 0-13, got %d", ErrInvalidSVTPreset, c.SVTAV1Preset)
	}

	if c.CRFSD > 63 {
		return fmt.Errorf("%w: crf-sd must be 0-63, got %d", ErrInvalidCRF, c.CRFSD)
	}
	if c.CRFHD > 63 {
		return fmt.Errorf("%w: crf-hd must be 0-63, got %d", ErrInvalidCRF, c.CRFHD)
	}
	if c.CRFUHD > 63 {
		return fmt.Errorf("%w: crf-uhd must be 0-63, got %d", ErrInvalidCRF, c.CRFUHD)
	}

	if c.SVTAV1FilmGrain == nil && c.SVTAV1FilmGrainDenoise != nil {
		return fmt.Errorf("%w: svt_av1_film_grain_denoise set without svt_av1_film_grain", ErrInvalidFilmGrain)
	}

	if _, ok := encoderQuantizerFlag[c.Encoder]; !ok {
		return fmt.Errorf("%w: unknown encoder %q", ErrInvalidEncoder, c.Encoder)
	}

	if c.Passes != 1 && c.Passes != 2 {
		return fmt.Errorf("passes must be 1 or 2, got %d", c.Passes)
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	if c.ChunkBuffer < 0 {
		return fmt.Errorf("chunk_buffer must be non-negative, got %d", c.ChunkBuffer)
	}

	if c.ChunkDuration < 1 || c.ChunkDuration > 120 {
		return fmt.Errorf("chunk_duration must be between 1 and 120 seconds, got %g", c.ChunkDuration)
	}

	if c.MinSceneLen < 0 {
		return fmt.Errorf("min_scene_len must be non-negative, got %d", c.MinSceneLen)
	}
	if c.ExtraSplit < 0 {
		return fmt.Errorf("extra_split must be non-negative, got %d", c.ExtraSplit)
	}

	if _, ok := chunk.ParseOrder(c.ChunkOrder); !ok {
		return fmt.Errorf("%w: unknown chunk-order %q", ErrInvalidChunkOrder, c.ChunkOrder)
	}

	if c.TargetQuality != nil {
		if c.Probes < 1 {
			return fmt.Errorf("probes must be at least 1, got %d", c.Probes)
		}
		if c.ProbingRate < 1 || c.ProbingRate > 4 {
			return fmt.Errorf("probing-rate must be between 1 and 4, got %d", c.ProbingRate)
		}
		if c.MinQ >= c.MaxQ {
			return fmt.Errorf("min-q must be less than max-q, got min=%g max=%g", c.MinQ, c.MaxQ)
		}
	}

	return nil
}

// GetTempDir returns the temp directory, falling back to OutputDir if not set.
func (c *Config) GetTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return c.OutputDir
}

// CRFForWidth returns the appropriate CRF value based on video width.
func (c *Config) CRFForWidth(width uint32) uint8 {
	if width >= UHDWidthThreshold {
		return c.CRFUHD
	}
	if width >= HDWidthThreshold {
		return c.CRFHD
	}
	return c.CRFSD
}

// QuantizerFlag returns the CLI flag the selected encoder accepts for a
// fixed quantizer value (e.g. "--crf" for SVT-AV1, "--cq-level" for aomenc).
func (c *Config) QuantizerFlag() string {
	return encoderQuantizerFlag[c.Encoder]
}

// TQConfig builds a target-quality search configuration from the CLI-level
// fields, or nil if target-quality search is disabled.
func (c *Config) TQConfig() (*tq.Config, error) {
	if c.TargetQuality == nil {
		return nil, nil
	}

	var stat tq.Statistic
	var percentile float64
	if c.ProbingStatistic == "" || c.ProbingStatistic == "auto" {
		stat = tq.AutoStatistic(c.ProbingRate)
	} else {
		var err error
		stat, percentile, err = tq.ParseStatistic(c.ProbingStatistic)
		if err != nil {
			return nil, err
		}
	}

	sense := tq.HigherIsBetter
	if c.TargetMetric == "butteraugli" {
		sense = tq.LowerIsBetter
	}

	target := *c.TargetQuality
	cfg := &tq.Config{
		TargetMin:   target,
		TargetMax:   target,
		Target:      target,
		Tolerance:   0,
		QPMin:       c.MinQ,
		QPMax:       c.MaxQ,
		MaxRounds:   c.Probes,
		MetricMode:  "mean",
		Sense:       sense,
		Stat:        stat,
		Percentile:  percentile,
		ProbingRate: c.ProbingRate,
		ProbeSlow:   c.ProbeSlow,
	}
	return cfg, nil
}
