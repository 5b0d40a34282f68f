package encoder

import (
	"fmt"
	"os/exec"
)

const aomEncBinary = "aomenc"

// AOM builds aomenc invocations in constrained-quality mode. aomenc
// accepts raw planes directly via --i420/--width/--height, so no y4m
// framing is needed.
type AOM struct{}

func NewAOM() *AOM { return &AOM{} }

func (a *AOM) Name() string        { return "aom" }
func (a *AOM) StdinFormat() Format { return FormatRaw10 }
func (a *AOM) IsAvailable() bool   { return lookPath(aomEncBinary) }

func (a *AOM) Header(p Params) []byte { return nil }

func (a *AOM) Command(p Params) *exec.Cmd {
	if p.Reset {
		return exec.Command(aomEncBinary, a.resetArgs(p)...)
	}
	args := []string{
		"--i420",
		"--bit-depth=10",
		fmt.Sprintf("--width=%d", p.Width),
		fmt.Sprintf("--height=%d", p.Height),
		fmt.Sprintf("--fps=%d/%d", p.Inf.FPSNum, p.Inf.FPSDen),
		fmt.Sprintf("--limit=%d", p.Frames),
		"--end-usage=q",
		fmt.Sprintf("--cq-level=%.0f", p.Quantizer),
		"--passes=1",
		"--lag-in-frames=0",
	}
	if p.Preset != "" {
		args = append(args, fmt.Sprintf("--cpu-used=%s", p.Preset))
	}
	if p.Threads > 0 {
		args = append(args, fmt.Sprintf("--threads=%d", p.Threads))
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return exec.Command(aomEncBinary, args...)
}

// resetArgs builds a reset-zone command line for aomenc: only the raw
// input framing it needs, then the zone's own arguments verbatim.
func (a *AOM) resetArgs(p Params) []string {
	args := []string{
		"--i420",
		"--bit-depth=10",
		fmt.Sprintf("--width=%d", p.Width),
		fmt.Sprintf("--height=%d", p.Height),
		fmt.Sprintf("--fps=%d/%d", p.Inf.FPSNum, p.Inf.FPSDen),
		fmt.Sprintf("--limit=%d", p.Frames),
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return args
}
