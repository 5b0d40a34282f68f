package chunk

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

// WorkDirName returns the working-directory name for an input path, a
// deterministic hash of its absolute form so concurrent runs on different
// inputs never collide.
func WorkDirName(inputPath string) string {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		abs = inputPath
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(abs))
	return fmt.Sprintf("av1an-%016x", h.Sum64())
}

// WorkDirPath joins a temp root with the hashed work-directory name.
func WorkDirPath(inputPath, tempRoot string) string {
	return filepath.Join(tempRoot, WorkDirName(inputPath))
}

// CreateWorkDir creates the working directory root only; the encode
// directory and each per-chunk directory are created later by their own
// Ensure* helpers.
func CreateWorkDir(workDir string) error {
	return os.MkdirAll(workDir, 0o755)
}

// CleanupWorkDir removes the working directory and everything under it.
// Called after a successful concat unless the user requested retention.
func CleanupWorkDir(workDir string) error {
	return os.RemoveAll(workDir)
}

// ChunkDir returns the per-chunk scratch directory within the working
// directory. No two workers read or write the same chunk directory.
func ChunkDir(workDir string, idx int) string {
	return filepath.Join(workDir, fmt.Sprintf("chunk-%05d", idx))
}

// EnsureChunkDir creates a chunk's scratch directory.
func EnsureChunkDir(workDir string, idx int) (string, error) {
	dir := ChunkDir(workDir, idx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// EncodeDir returns the directory holding finished per-chunk bitstreams,
// the input internal/concat's strategies glob and mux.
func EncodeDir(workDir string) string {
	return filepath.Join(workDir, "encode")
}

// EnsureEncodeDir creates the encode directory.
func EnsureEncodeDir(workDir string) error {
	return os.MkdirAll(EncodeDir(workDir), 0o755)
}

// IVFPath returns a chunk's finished bitstream path within the encode
// directory.
func IVFPath(workDir string, idx int) string {
	return filepath.Join(EncodeDir(workDir), fmt.Sprintf("%04d.ivf", idx))
}
