package concat

import (
	"context"
	"fmt"
	"path/filepath"
)

// AudioPath returns the working directory's extracted-audio file, the
// side-task output the driver's audio phase runs in parallel with video
// encoding: one file, Matroska container, stream-copied so no re-encode
// ever touches audio.
func AudioPath(workDir string) string {
	return filepath.Join(workDir, "audio.mka")
}

// ExtractAudio stream-copies every audio track out of inputPath into the
// working directory. A source with no audio streams is not an error:
// MuxFinal treats a missing audio file as "video only".
func ExtractAudio(ctx context.Context, inputPath, workDir string) (string, error) {
	out := AudioPath(workDir)
	err := runFFmpeg(ctx,
		"-hide_banner",
		"-i", inputPath,
		"-vn",
		"-map", "0:a?",
		"-c", "copy",
		"-y",
		out,
	)
	if err != nil {
		return "", fmt.Errorf("concat: extract audio: %w", err)
	}
	return out, nil
}

// MuxFinal combines the merged video and (optional) extracted audio into
// the final output container.
func MuxFinal(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := []string{"-hide_banner", "-i", videoPath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	args = append(args, "-c", "copy", "-y", outputPath)
	if err := runFFmpeg(ctx, args...); err != nil {
		return fmt.Errorf("concat: mux final output: %w", err)
	}
	return nil
}
