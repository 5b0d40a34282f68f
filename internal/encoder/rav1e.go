package encoder

import (
	"fmt"
	"os/exec"
)

const rav1eBinary = "rav1e"

// Rav1e builds rav1e invocations. rav1e has no raw-plane ingest path; it
// only parses y4m, so Command's caller must prefix stdin with Header's
// bytes before the frame data (see StdinFormat).
type Rav1e struct{}

func NewRav1e() *Rav1e { return &Rav1e{} }

func (r *Rav1e) Name() string        { return "rav1e" }
func (r *Rav1e) StdinFormat() Format { return FormatY4M }
func (r *Rav1e) IsAvailable() bool   { return lookPath(rav1eBinary) }

// Header returns the y4m header rav1e needs to parse dimensions and
// framerate off the stdin stream.
func (r *Rav1e) Header(p Params) []byte {
	return y4mHeader(p.Width, p.Height, p.Inf.FPSNum, p.Inf.FPSDen)
}

func (r *Rav1e) Command(p Params) *exec.Cmd {
	if p.Reset {
		args := append([]string{"-", "--output", p.Output}, p.ExtraArgs...)
		return exec.Command(rav1eBinary, args...)
	}

	args := []string{
		"-", // read y4m from stdin
		"--quantizer", fmt.Sprintf("%.0f", p.Quantizer),
		"--output", p.Output,
	}
	if p.Preset != "" {
		args = append(args, "--speed", p.Preset)
	}
	if p.Threads > 0 {
		args = append(args, "--threads", fmt.Sprintf("%d", p.Threads))
	}
	args = append(args, p.ExtraArgs...)
	return exec.Command(rav1eBinary, args...)
}
