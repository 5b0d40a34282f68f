package metric

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const butteraugliBinary = "butteraugli_main"

// Butteraugli shells out to libjxl's butteraugli_main, a standalone
// perceptual-distance CLI distinct from any ffmpeg filter. It reports a
// single whole-clip distance rather than per-frame scores, and lower
// values mean less visible distortion (the opposite sense of
// SSIMULACRA2/VMAF/XPSNR).
type Butteraugli struct{}

func NewButteraugli() *Butteraugli { return &Butteraugli{} }

func (b *Butteraugli) Name() string { return "butteraugli" }
func (b *Butteraugli) Sense() Sense { return LowerIsBetter }

func (b *Butteraugli) IsAvailable() bool {
	_, err := exec.LookPath(butteraugliBinary)
	return err == nil
}

func (b *Butteraugli) CompareFiles(ctx context.Context, refPath, disPath string) (float64, []float64, error) {
	cmd := exec.CommandContext(ctx, butteraugliBinary, refPath, disPath)
	out, err := cmd.Output()
	if err != nil {
		return 0, nil, fmt.Errorf("metric: butteraugli: %s failed: %w", butteraugliBinary, err)
	}

	score, err := parseButteraugliOutput(string(out))
	if err != nil {
		return 0, nil, err
	}
	return score, nil, nil
}

// parseButteraugliOutput extracts the distance value from
// butteraugli_main's stdout, which prints a single floating-point
// number (optionally followed by whitespace/newline).
func parseButteraugliOutput(out string) (float64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("metric: butteraugli: empty output")
	}
	score, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("metric: butteraugli: unparseable output %q: %w", out, err)
	}
	return score, nil
}
