package scenedetect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadScenes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.txt")

	want := []int{0, 240, 480, 960}
	if err := SaveScenes(path, 960, want); err != nil {
		t.Fatalf("SaveScenes() error = %v", err)
	}

	got, sourceFrames, err := LoadScenes(path)
	if err != nil {
		t.Fatalf("LoadScenes() error = %v", err)
	}
	if sourceFrames != 960 {
		t.Errorf("sourceFrames = %d, want 960", sourceFrames)
	}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLoadScenes_NoFrameCountComment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.txt")
	if err := os.WriteFile(path, []byte("0\n240\n480\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	got, sourceFrames, err := LoadScenes(path)
	if err != nil {
		t.Fatalf("LoadScenes() error = %v", err)
	}
	if sourceFrames != 0 {
		t.Errorf("sourceFrames = %d, want 0 (no comment present)", sourceFrames)
	}
	if len(got) != 3 {
		t.Errorf("len(got) = %d, want 3", len(got))
	}
}

func TestLoadScenes_MalformedLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenes.txt")
	if err := os.WriteFile(path, []byte("0\nnotanumber\n240\n"), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	if _, _, err := LoadScenes(path); err == nil {
		t.Error("LoadScenes() should fail on a malformed line")
	}
}

func TestFixedInterval_Detect(t *testing.T) {
	f := &FixedInterval{ChunkDurationSecs: 10}
	cuts, err := f.Detect(nil, "", 30, 1, 305)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	want := []int{300}
	if len(cuts) != len(want) {
		t.Fatalf("len(cuts) = %d, want %d: %v", len(cuts), len(want), cuts)
	}
	for i := range want {
		if cuts[i] != want[i] {
			t.Errorf("cuts[%d] = %d, want %d", i, cuts[i], want[i])
		}
	}
}

func TestFixedInterval_ZeroTotalFrames(t *testing.T) {
	f := &FixedInterval{ChunkDurationSecs: 10}
	cuts, err := f.Detect(nil, "", 30, 1, 0)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if cuts != nil {
		t.Errorf("cuts = %v, want nil", cuts)
	}
}

type stubDetector struct {
	cuts []int
}

func (s *stubDetector) Detect(_ context.Context, _ string, _, _ uint32, _ int) ([]int, error) {
	return s.cuts, nil
}

func TestDetectOrLoad_PersistsFrameCount(t *testing.T) {
	dir := t.TempDir()
	det := &stubDetector{cuts: []int{100, 200}}

	cuts, err := DetectOrLoad(context.Background(), det, "in.mkv", dir, 30, 1, 500, false)
	if err != nil {
		t.Fatalf("DetectOrLoad() error = %v", err)
	}
	if len(cuts) != 2 {
		t.Fatalf("len(cuts) = %d, want 2", len(cuts))
	}

	_, sourceFrames, err := LoadScenes(filepath.Join(dir, "scenes.txt"))
	if err != nil {
		t.Fatalf("LoadScenes() error = %v", err)
	}
	if sourceFrames != 500 {
		t.Errorf("persisted sourceFrames = %d, want 500", sourceFrames)
	}
}

func TestDetectOrLoad_FrameMismatchFails(t *testing.T) {
	dir := t.TempDir()
	det := &stubDetector{cuts: []int{100}}

	if _, err := DetectOrLoad(context.Background(), det, "in.mkv", dir, 30, 1, 500, false); err != nil {
		t.Fatalf("initial DetectOrLoad() error = %v", err)
	}

	if _, err := DetectOrLoad(context.Background(), det, "in.mkv", dir, 30, 1, 600, false); err == nil {
		t.Error("DetectOrLoad() should fail when the source frame count changed")
	}

	cuts, err := DetectOrLoad(context.Background(), det, "in.mkv", dir, 30, 1, 600, true)
	if err != nil {
		t.Fatalf("DetectOrLoad() with ignoreFrameMismatch error = %v", err)
	}
	if len(cuts) != 1 {
		t.Fatalf("len(cuts) = %d, want 1 (trusted stale file)", len(cuts))
	}
}

func TestChunkDurationForResolution(t *testing.T) {
	cases := []struct {
		w, h uint32
		want float64
	}{
		{3840, 2160, 45.0},
		{1920, 1080, 30.0},
		{1280, 720, 20.0},
	}
	for _, c := range cases {
		if got := ChunkDurationForResolution(c.w, c.h); got != c.want {
			t.Errorf("ChunkDurationForResolution(%d,%d) = %v, want %v", c.w, c.h, got, c.want)
		}
	}
}
