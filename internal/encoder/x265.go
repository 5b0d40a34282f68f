package encoder

import (
	"fmt"
	"os/exec"
)

const x265Binary = "x265"

// X265 builds x265 invocations, reading y4m from stdin the same way
// X264 does.
type X265 struct{}

func NewX265() *X265 { return &X265{} }

func (x *X265) Name() string        { return "x265" }
func (x *X265) StdinFormat() Format { return FormatY4M }
func (x *X265) IsAvailable() bool   { return lookPath(x265Binary) }

func (x *X265) Header(p Params) []byte {
	return y4mHeader(p.Width, p.Height, p.Inf.FPSNum, p.Inf.FPSDen)
}

func (x *X265) Command(p Params) *exec.Cmd {
	if p.Reset {
		return exec.Command(x265Binary, x.resetArgs(p)...)
	}
	args := []string{
		"--y4m",
		"--input-depth", "10",
		"--output-depth", "10",
		"--profile", "main10",
		"--crf", fmt.Sprintf("%.1f", p.Quantizer),
		"--frames", fmt.Sprintf("%d", p.Frames),
	}
	if p.Preset != "" {
		args = append(args, "--preset", p.Preset)
	}
	if p.Threads > 0 {
		args = append(args, "--pools", fmt.Sprintf("%d", p.Threads))
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "--input", "-", "-o", p.Output)
	return exec.Command(x265Binary, args...)
}

// resetArgs builds a reset-zone command line for x265: only the y4m
// demux/depth plumbing it needs, then the zone's own arguments verbatim.
func (x *X265) resetArgs(p Params) []string {
	args := []string{
		"--y4m",
		"--input-depth", "10",
		"--output-depth", "10",
		"--profile", "main10",
		"--frames", fmt.Sprintf("%d", p.Frames),
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "--input", "-", "-o", p.Output)
	return args
}
