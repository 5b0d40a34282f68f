// Package concat muxes finished per-chunk bitstreams into the final
// output container, in concat-order.
package concat

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/av1an-go/av1an/internal/chunk"
)

// Strategy merges the encode directory's per-chunk IVF files, in the
// order given by chunks, into outputPath.
type Strategy interface {
	Name() string
	Merge(ctx context.Context, workDir string, chunks []chunk.Chunk, outputPath string) error
	IsAvailable() bool
}

// ByName resolves a muxer strategy by its CLI name. "" picks the
// default: the ffmpeg concat demuxer, batched automatically above
// batchSize inputs.
func ByName(name string) (Strategy, error) {
	switch name {
	case "", "concat":
		return &ConcatDemuxer{}, nil
	case "mkvmerge":
		return &MkvMerge{}, nil
	default:
		return nil, fmt.Errorf("concat: unknown strategy %q", name)
	}
}

// writeConcatFile writes an ffmpeg concat-demuxer list file, one
// absolute path per line.
func writeConcatFile(listPath string, paths []string) (err error) {
	f, err := os.Create(listPath)
	if err != nil {
		return fmt.Errorf("concat: create list file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("concat: close list file: %w", cerr)
		}
	}()

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("concat: resolve %s: %w", p, err)
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", abs); err != nil {
			return fmt.Errorf("concat: write list entry: %w", err)
		}
	}
	return nil
}

// orderedIVFPaths returns each chunk's finished bitstream path, in the
// chunk-order the caller supplied (already sorted per the dispatch
// policy's concat-order requirement).
func orderedIVFPaths(workDir string, chunks []chunk.Chunk) []string {
	paths := make([]string, len(chunks))
	for i, c := range chunks {
		paths[i] = chunk.IVFPath(workDir, c.Idx)
	}
	return paths
}

func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("concat: ffmpeg failed: %w: %s", err, out)
	}
	return nil
}
