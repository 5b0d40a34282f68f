package concat

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/av1an-go/av1an/internal/chunk"
)

// MkvMerge merges per-chunk bitstreams with the mkvmerge CLI instead of
// ffmpeg's concat demuxer. It tolerates the codec switches a zone with a
// different encoder can introduce across chunk boundaries, which the
// concat demuxer's stream copy cannot.
type MkvMerge struct{}

func (m *MkvMerge) Name() string { return "mkvmerge" }

func (m *MkvMerge) IsAvailable() bool { return isMkvMergeAvailable() }

func (m *MkvMerge) Merge(ctx context.Context, workDir string, chunks []chunk.Chunk, outputPath string) error {
	paths := orderedIVFPaths(workDir, chunks)
	if len(paths) == 0 {
		return fmt.Errorf("concat: no chunks to merge")
	}

	args := []string{"-o", outputPath, paths[0]}
	for _, p := range paths[1:] {
		args = append(args, "+"+p)
	}

	cmd := exec.CommandContext(ctx, "mkvmerge", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("concat: mkvmerge failed: %w: %s", err, out)
	}
	return nil
}

func isMkvMergeAvailable() bool {
	_, err := exec.LookPath("mkvmerge")
	return err == nil
}
