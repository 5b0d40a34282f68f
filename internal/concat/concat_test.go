package concat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/av1an-go/av1an/internal/chunk"
)

func TestByName_KnownStrategies(t *testing.T) {
	for _, name := range []string{"", "concat", "mkvmerge"} {
		s, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
			continue
		}
		if s == nil {
			t.Errorf("ByName(%q) returned nil", name)
		}
	}
}

func TestByName_UnknownStrategy(t *testing.T) {
	if _, err := ByName("bogus"); err == nil {
		t.Error("ByName(bogus) should error")
	}
}

func TestWriteConcatFile(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.txt")
	a := filepath.Join(dir, "a.ivf")
	b := filepath.Join(dir, "b.ivf")

	if err := writeConcatFile(listPath, []string{a, b}); err != nil {
		t.Fatalf("writeConcatFile() error = %v", err)
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatalf("os.ReadFile() error = %v", err)
	}
	want := "file '" + a + "'\nfile '" + b + "'\n"
	if string(data) != want {
		t.Errorf("list contents = %q, want %q", data, want)
	}
}

func TestOrderedIVFPaths_FollowsChunkOrderNotIndex(t *testing.T) {
	workDir := "/tmp/av1an-test"
	chunks := []chunk.Chunk{
		{Idx: 2, Start: 200, End: 300},
		{Idx: 0, Start: 0, End: 100},
	}
	paths := orderedIVFPaths(workDir, chunks)
	if len(paths) != 2 {
		t.Fatalf("len(paths) = %d, want 2", len(paths))
	}
	if paths[0] != chunk.IVFPath(workDir, 2) || paths[1] != chunk.IVFPath(workDir, 0) {
		t.Errorf("paths = %v, expected chunk-order not index-order", paths)
	}
}

func TestConcatDemuxer_Merge_NoChunksErrors(t *testing.T) {
	d := &ConcatDemuxer{}
	if err := d.Merge(nil, t.TempDir(), nil, "out.mkv"); err == nil {
		t.Error("Merge() with no chunks should error")
	}
}

func TestMkvMerge_Merge_NoChunksErrors(t *testing.T) {
	m := &MkvMerge{}
	if err := m.Merge(nil, t.TempDir(), nil, "out.mkv"); err == nil {
		t.Error("Merge() with no chunks should error")
	}
}
