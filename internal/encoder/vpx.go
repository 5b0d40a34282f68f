package encoder

import (
	"fmt"
	"os/exec"
)

const vpxEncBinary = "vpxenc"

// VPX builds vpxenc invocations targeting VP9 (--codec=vp9), the only
// vpxenc target that fits this pipeline's AV1-sibling quality bracket.
// Like aomenc it ingests raw planes directly.
type VPX struct{}

func NewVPX() *VPX { return &VPX{} }

func (v *VPX) Name() string        { return "vpx" }
func (v *VPX) StdinFormat() Format { return FormatRaw10 }
func (v *VPX) IsAvailable() bool   { return lookPath(vpxEncBinary) }

func (v *VPX) Header(p Params) []byte { return nil }

func (v *VPX) Command(p Params) *exec.Cmd {
	if p.Reset {
		return exec.Command(vpxEncBinary, v.resetArgs(p)...)
	}
	args := []string{
		"--codec=vp9",
		"--i420",
		"--bit-depth=10",
		"--profile=2",
		fmt.Sprintf("--width=%d", p.Width),
		fmt.Sprintf("--height=%d", p.Height),
		fmt.Sprintf("--fps=%d/%d", p.Inf.FPSNum, p.Inf.FPSDen),
		fmt.Sprintf("--limit=%d", p.Frames),
		"--end-usage=cq",
		fmt.Sprintf("--cq-level=%.0f", p.Quantizer),
		"--passes=1",
	}
	if p.Preset != "" {
		args = append(args, fmt.Sprintf("--cpu-used=%s", p.Preset))
	}
	if p.Threads > 0 {
		args = append(args, fmt.Sprintf("--threads=%d", p.Threads))
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return exec.Command(vpxEncBinary, args...)
}

// resetArgs builds a reset-zone command line for vpxenc: only the raw
// input framing it needs, then the zone's own arguments verbatim.
func (v *VPX) resetArgs(p Params) []string {
	args := []string{
		"--codec=vp9",
		"--i420",
		"--bit-depth=10",
		"--profile=2",
		fmt.Sprintf("--width=%d", p.Width),
		fmt.Sprintf("--height=%d", p.Height),
		fmt.Sprintf("--fps=%d/%d", p.Inf.FPSNum, p.Inf.FPSDen),
		fmt.Sprintf("--limit=%d", p.Frames),
	}
	args = append(args, p.ExtraArgs...)
	args = append(args, "-o", p.Output, "-")
	return args
}
