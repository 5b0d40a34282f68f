package concat

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/av1an-go/av1an/internal/chunk"
)

// batchSize caps how many inputs go into a single concat-demuxer
// invocation; ffmpeg's concat demuxer grows unreliable well past this,
// so larger chunk counts merge in batches first.
const batchSize = 500

// ConcatDemuxer merges IVF files with ffmpeg's "-f concat" demuxer and a
// stream copy, the fast path used whenever every chunk shares a codec.
type ConcatDemuxer struct{}

func (d *ConcatDemuxer) Name() string { return "concat" }

func (d *ConcatDemuxer) IsAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

func (d *ConcatDemuxer) Merge(ctx context.Context, workDir string, chunks []chunk.Chunk, outputPath string) error {
	paths := orderedIVFPaths(workDir, chunks)
	if len(paths) == 0 {
		return fmt.Errorf("concat: no chunks to merge")
	}

	if len(paths) > batchSize {
		merged, err := mergeBatched(ctx, workDir, paths)
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(merged) }()
		paths = []string{merged}
	}

	listPath := filepath.Join(workDir, "concat.txt")
	if err := writeConcatFile(listPath, paths); err != nil {
		return err
	}
	defer func() { _ = os.Remove(listPath) }()

	return runFFmpeg(ctx,
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-fflags", "+genpts+igndts+discardcorrupt+bitexact",
		"-avoid_negative_ts", "make_zero",
		"-reset_timestamps", "1",
		"-y",
		outputPath,
	)
}

// mergeBatched merges paths batchSize at a time into a scratch
// directory, then merges the batch outputs into a single file, returning
// its path. Exists because the concat demuxer itself grows unreliable
// over thousands of inputs.
func mergeBatched(ctx context.Context, workDir string, paths []string) (string, error) {
	tempDir := filepath.Join(workDir, "concat-batches")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("concat: create batch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	var batchOutputs []string
	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))

		batchNum := start / batchSize
		listPath := filepath.Join(tempDir, fmt.Sprintf("batch-%04d.txt", batchNum))
		if err := writeConcatFile(listPath, paths[start:end]); err != nil {
			return "", err
		}

		out := filepath.Join(tempDir, fmt.Sprintf("batch-%04d.ivf", batchNum))
		if err := runFFmpeg(ctx,
			"-hide_banner",
			"-f", "concat",
			"-safe", "0",
			"-i", listPath,
			"-c", "copy",
			"-y",
			out,
		); err != nil {
			return "", fmt.Errorf("concat: batch %d: %w", batchNum, err)
		}
		batchOutputs = append(batchOutputs, out)
	}

	finalList := filepath.Join(tempDir, "final.txt")
	if err := writeConcatFile(finalList, batchOutputs); err != nil {
		return "", err
	}

	merged := filepath.Join(workDir, "concat-merged.ivf")
	if err := runFFmpeg(ctx,
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", finalList,
		"-c", "copy",
		"-y",
		merged,
	); err != nil {
		return "", fmt.Errorf("concat: final batch merge: %w", err)
	}
	return merged, nil
}
