package metric

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// XPSNR computes extended PSNR scores via ffmpeg's xpsnr filter, logging
// per-frame values to a text file the same way the vmaf filter does for
// its JSON log.
type XPSNR struct{}

func NewXPSNR() *XPSNR { return &XPSNR{} }

func (x *XPSNR) Name() string { return "xpsnr" }
func (x *XPSNR) Sense() Sense { return HigherIsBetter }

func (x *XPSNR) IsAvailable() bool {
	out, err := exec.Command("ffmpeg", "-filters").CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "xpsnr")
}

func (x *XPSNR) CompareFiles(ctx context.Context, refPath, disPath string) (float64, []float64, error) {
	logFile, err := os.CreateTemp("", "av1an-xpsnr-*.log")
	if err != nil {
		return 0, nil, fmt.Errorf("metric: xpsnr: create log file: %w", err)
	}
	logPath := logFile.Name()
	_ = logFile.Close()
	defer func() { _ = os.Remove(logPath) }()

	filter := fmt.Sprintf("xpsnr=stats_file=%s", logPath)
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", disPath,
		"-i", refPath,
		"-lavfi", filter,
		"-f", "null", "-",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, nil, fmt.Errorf("metric: xpsnr: ffmpeg failed: %w: %s", err, out)
	}

	return parseXPSNRLog(logPath)
}

// parseXPSNRLog reads xpsnr's stats_file, one line per frame in the
// form "n:1 y:42.31 u:45.00 v:45.20", and returns the luma score per
// frame (the channel target-quality search compares against).
func parseXPSNRLog(path string) (float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("metric: xpsnr: open log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var scores []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		for _, field := range fields {
			if strings.HasPrefix(field, "y:") {
				v, err := strconv.ParseFloat(strings.TrimPrefix(field, "y:"), 64)
				if err != nil {
					continue
				}
				scores = append(scores, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, nil, fmt.Errorf("metric: xpsnr: read log: %w", err)
	}
	if len(scores) == 0 {
		return 0, nil, fmt.Errorf("metric: xpsnr: log contains no frame scores")
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), scores, nil
}
