package metric

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// VMAF computes Netflix VMAF scores via ffmpeg's libvmaf filter, the
// same subprocess-and-parse idiom internal/ffmpeg/executor.go uses for
// encode progress, but reading a JSON log instead of stderr text.
type VMAF struct{}

func NewVMAF() *VMAF { return &VMAF{} }

func (v *VMAF) Name() string { return "vmaf" }
func (v *VMAF) Sense() Sense { return HigherIsBetter }

func (v *VMAF) IsAvailable() bool {
	out, err := exec.Command("ffmpeg", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "libvmaf")
}

func (v *VMAF) CompareFiles(ctx context.Context, refPath, disPath string) (float64, []float64, error) {
	logFile, err := os.CreateTemp("", "av1an-vmaf-*.json")
	if err != nil {
		return 0, nil, fmt.Errorf("metric: vmaf: create log file: %w", err)
	}
	logPath := logFile.Name()
	_ = logFile.Close()
	defer func() { _ = os.Remove(logPath) }()

	filter := fmt.Sprintf("libvmaf=log_path=%s:log_fmt=json", logPath)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", disPath,
		"-i", refPath,
		"-lavfi", filter,
		"-f", "null", "-",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, nil, fmt.Errorf("metric: vmaf: ffmpeg failed: %w: %s", err, out)
	}

	return parseVMAFLog(logPath)
}

type vmafLog struct {
	Frames []struct {
		Metrics struct {
			VMAF float64 `json:"vmaf"`
		} `json:"metrics"`
	} `json:"frames"`
	PooledMetrics struct {
		VMAF struct {
			Mean float64 `json:"mean"`
		} `json:"vmaf"`
	} `json:"pooled_metrics"`
}

func parseVMAFLog(path string) (float64, []float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: vmaf: read log: %w", err)
	}

	var log vmafLog
	if err := json.Unmarshal(data, &log); err != nil {
		return 0, nil, fmt.Errorf("metric: vmaf: parse log: %w", err)
	}

	scores := make([]float64, 0, len(log.Frames))
	for _, f := range log.Frames {
		scores = append(scores, f.Metrics.VMAF)
	}
	if len(scores) == 0 {
		return 0, nil, fmt.Errorf("metric: vmaf: log contains no frame scores")
	}

	return log.PooledMetrics.VMAF.Mean, scores, nil
}
