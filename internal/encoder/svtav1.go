package encoder

import (
	"fmt"
	"os/exec"
)

const svtEncBinary = "SvtAv1EncApp"

// SVTAV1Options carries the tuning knobs beyond plain CRF/preset that are
// SVT-AV1-specific; kept as a distinct options type since no other
// backend has an equivalent.
type SVTAV1Options struct {
	Tune                  uint8
	ACBias                float32
	EnableVarianceBoost   bool
	VarianceBoostStrength uint8
	VarianceOctile        uint8
	FilmGrain             *uint8
	FilmGrainDenoise      *bool
}

// SVTAV1 builds SvtAv1EncApp invocations. It reads raw 10-bit YUV420
// planar frames from stdin and writes an IVF bitstream, keeping only
// the flags that are safe to repeat per chunk (keyint,
// scene-change-detection-within-chunk, color metadata).
type SVTAV1 struct {
	opts SVTAV1Options
}

func NewSVTAV1(opts SVTAV1Options) *SVTAV1 {
	return &SVTAV1{opts: opts}
}

func (s *SVTAV1) Name() string        { return "svt-av1" }
func (s *SVTAV1) StdinFormat() Format { return FormatRaw10 }
func (s *SVTAV1) IsAvailable() bool   { return lookPath(svtEncBinary) }

func (s *SVTAV1) Header(p Params) []byte { return nil }

func (s *SVTAV1) Command(p Params) *exec.Cmd {
	args := s.buildArgs(p)
	// Wrapped with nice to keep the system responsive under the full
	// worker-count fan-out.
	niceArgs := append([]string{"-n", "19", svtEncBinary}, args...)
	cmd := exec.Command("nice", niceArgs...)
	return cmd
}

func (s *SVTAV1) buildArgs(p Params) []string {
	if p.Reset {
		return s.resetArgs(p)
	}

	fps := float64(p.Inf.FPSNum) / float64(p.Inf.FPSDen)
	keyintFrames := int(fps * 10)

	args := []string{
		"-i", "stdin",
		"--input-depth", "10",
		"--color-format", "1",
		"--profile", "0",
		"--passes", "1",
		"--tile-rows", "0",
		"--tile-columns", "0",
		"--width", fmt.Sprintf("%d", p.Width),
		"--height", fmt.Sprintf("%d", p.Height),
		"--fps-num", fmt.Sprintf("%d", p.Inf.FPSNum),
		"--fps-denom", fmt.Sprintf("%d", p.Inf.FPSDen),
		"--keyint", fmt.Sprintf("%d", keyintFrames),
		"--rc", "0",
		"--scd", "1",
		"--scm", "0",
		"--progress", "2",
		"--frames", fmt.Sprintf("%d", p.Frames),
		"--crf", fmt.Sprintf("%.0f", p.Quantizer),
	}
	if p.Preset != "" {
		args = append(args, "--preset", p.Preset)
	}
	args = append(args, "--tune", fmt.Sprintf("%d", s.opts.Tune))

	if p.Threads > 0 {
		args = append(args, "--lp", fmt.Sprintf("%d", p.Threads))
	}

	if p.Inf.ColorPrimaries != nil {
		args = append(args, "--color-primaries", fmt.Sprintf("%d", *p.Inf.ColorPrimaries))
	}
	if p.Inf.TransferCharacteristics != nil {
		args = append(args, "--transfer-characteristics", fmt.Sprintf("%d", *p.Inf.TransferCharacteristics))
	}
	if p.Inf.MatrixCoefficients != nil {
		args = append(args, "--matrix-coefficients", fmt.Sprintf("%d", *p.Inf.MatrixCoefficients))
	}
	if p.Inf.MasteringDisplay != nil {
		args = append(args, "--mastering-display", *p.Inf.MasteringDisplay)
	}
	if p.Inf.ContentLight != nil {
		args = append(args, "--content-light", *p.Inf.ContentLight)
	}
	if p.GrainTable != nil {
		args = append(args, "--fgs-table", *p.GrainTable)
	}

	if s.opts.ACBias != 0 {
		args = append(args, "--ac-bias", fmt.Sprintf("%.2f", s.opts.ACBias))
	}
	if s.opts.EnableVarianceBoost {
		args = append(args, "--enable-variance-boost", "1")
		args = append(args, "--variance-boost-strength", fmt.Sprintf("%d", s.opts.VarianceBoostStrength))
		args = append(args, "--variance-octile", fmt.Sprintf("%d", s.opts.VarianceOctile))
	}
	if s.opts.FilmGrain != nil {
		args = append(args, "--film-grain", fmt.Sprintf("%d", *s.opts.FilmGrain))
		if s.opts.FilmGrainDenoise != nil {
			denoise := "0"
			if *s.opts.FilmGrainDenoise {
				denoise = "1"
			}
			args = append(args, "--film-grain-denoise", denoise)
		}
	}

	args = append(args, p.ExtraArgs...)
	args = append(args, "-b", p.Output)
	return args
}

// resetArgs builds a reset-zone command line: nothing but the plumbing
// SvtAv1EncApp needs to parse the raw stdin stream and locate its
// output, followed verbatim by the zone's own arguments. No CRF,
// preset, profile, or tuning default survives a reset.
func (s *SVTAV1) resetArgs(p Params) []string {
	args := []string{
		"-i", "stdin",
		"--input-depth", "10",
		"--color-format", "1",
		"--profile", "0",
		"--width", fmt.Sprintf("%d", p.Width),
		"--height", fmt.Sprintf("%d", p.Height),
		"--frames", fmt.Sprintf("%d", p.Frames),
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-b", p.Output)
	return args
}
