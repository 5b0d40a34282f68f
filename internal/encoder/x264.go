package encoder

import (
	"fmt"
	"os/exec"
)

const x264Binary = "x264"

// X264 builds x264 invocations. x264 demuxes y4m from stdin when given
// --demuxer y4m, which is how it recovers frame geometry here.
type X264 struct{}

func NewX264() *X264 { return &X264{} }

func (x *X264) Name() string        { return "x264" }
func (x *X264) StdinFormat() Format { return FormatY4M }
func (x *X264) IsAvailable() bool   { return lookPath(x264Binary) }

func (x *X264) Header(p Params) []byte {
	return y4mHeader(p.Width, p.Height, p.Inf.FPSNum, p.Inf.FPSDen)
}

func (x *X264) Command(p Params) *exec.Cmd {
	if p.Reset {
		return exec.Command(x264Binary, x.resetArgs(p)...)
	}
	args := []string{
		"--demuxer", "y4m",
		"--input-depth", "10",
		"--output-depth", "10",
		"--profile", "high10",
		"--crf", fmt.Sprintf("%.1f", p.Quantizer),
		"--frames", fmt.Sprintf("%d", p.Frames),
	}
	if p.Preset != "" {
		args = append(args, "--preset", p.Preset)
	}
	if p.Threads > 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", p.Threads))
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return exec.Command(x264Binary, args...)
}

// resetArgs builds a reset-zone command line for x264: only the y4m
// demux/depth plumbing it needs, then the zone's own arguments verbatim.
func (x *X264) resetArgs(p Params) []string {
	args := []string{
		"--demuxer", "y4m",
		"--input-depth", "10",
		"--output-depth", "10",
		"--profile", "high10",
		"--frames", fmt.Sprintf("%d", p.Frames),
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return args
}
