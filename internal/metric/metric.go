// Package metric wraps the quality-metric backends the target-quality
// search (internal/tq) and final validation report compare an encoded
// chunk against its source with: GPU SSIMULACRA2 (CGO, internal/vship),
// ffmpeg-filter-based VMAF/XPSNR, and Butteraugli through libjxl's
// standalone butteraugli_main CLI, grounded on
// internal/ffmpeg/executor.go's subprocess-with-progress idiom.
package metric

import (
	"context"
	"fmt"
)

// Runner computes a per-frame quality score between a reference and a
// distorted video. FrameScores may be nil when a backend only reports a
// single aggregate value.
type Runner interface {
	Name() string
	Sense() Sense
	CompareFiles(ctx context.Context, refPath, disPath string) (score float64, frameScores []float64, err error)
	IsAvailable() bool
}

// Sense mirrors tq.MetricSense so this package does not import
// internal/tq. The driver maps this to tq.MetricSense
// when building a tq.Config.
type Sense int

const (
	HigherIsBetter Sense = iota
	LowerIsBetter
)

// ByName resolves a Runner by its Name().
func ByName(name string) (Runner, error) {
	switch name {
	case "ssimulacra2", "":
		return NewSSIMULACRA2(), nil
	case "vmaf":
		return NewVMAF(), nil
	case "butteraugli":
		return NewButteraugli(), nil
	case "xpsnr":
		return NewXPSNR(), nil
	default:
		return nil, fmt.Errorf("metric: unknown backend %q", name)
	}
}
