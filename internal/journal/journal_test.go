package journal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMarkDoneAndLookup(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	q := 28.5
	if err := j.MarkDone(Record{ChunkIdx: 3, FrameCount: 240, Bytes: 1024, OutputFile: "chunk-00003.ivf", ChosenQ: &q}); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}

	rec, ok := j.Lookup(3)
	if !ok {
		t.Fatal("Lookup(3) = false, want true")
	}
	if rec.FrameCount != 240 || rec.Bytes != 1024 || rec.OutputFile != "chunk-00003.ivf" {
		t.Errorf("Lookup(3) = %+v, unexpected fields", rec)
	}
	if rec.ChosenQ == nil || *rec.ChosenQ != 28.5 {
		t.Errorf("ChosenQ = %v, want 28.5", rec.ChosenQ)
	}

	if _, ok := j.Lookup(4); ok {
		t.Error("Lookup(4) = true, want false")
	}
}

func TestIsDone_FrameCountMismatch(t *testing.T) {
	dir := t.TempDir()
	j, _ := Open(filepath.Join(dir, "journal"))
	_ = j.MarkDone(Record{ChunkIdx: 0, FrameCount: 240, OutputFile: "chunk-00000.ivf"})

	if !j.IsDone(0, 240) {
		t.Error("IsDone(0, 240) = false, want true")
	}
	if j.IsDone(0, 241) {
		t.Error("IsDone(0, 241) = true, want false for a changed plan")
	}
	if j.IsDone(1, 240) {
		t.Error("IsDone(1, 240) = true, want false for an unrecorded chunk")
	}
}

func TestOpen_ReloadsPersistedRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	j1, _ := Open(path)
	_ = j1.MarkDone(Record{ChunkIdx: 0, FrameCount: 100, Bytes: 500, OutputFile: "chunk-00000.ivf"})
	_ = j1.MarkDone(Record{ChunkIdx: 1, FrameCount: 150, Bytes: 700, OutputFile: "chunk-00001.ivf"})

	j2, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(j2.DoneSet()) != 2 {
		t.Fatalf("DoneSet() len = %d, want 2", len(j2.DoneSet()))
	}
	if j2.TotalEncodedFrames() != 250 {
		t.Errorf("TotalEncodedFrames() = %d, want 250", j2.TotalEncodedFrames())
	}
	if j2.TotalEncodedSize() != 1200 {
		t.Errorf("TotalEncodedSize() = %d, want 1200", j2.TotalEncodedSize())
	}
}

func TestOpen_MissingFileIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "does-not-exist"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(j.DoneSet()) != 0 {
		t.Error("DoneSet() should be empty for a fresh journal")
	}
}

func TestOpen_TruncatesTrailingGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	good := "0 100 500 chunk-00000.ivf 27.5\n1 150 700 chunk-00001.ivf -\n"
	corrupt := good + "2 99 not-a-numb"
	if err := os.WriteFile(path, []byte(corrupt), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(j.DoneSet()) != 2 {
		t.Fatalf("DoneSet() len = %d, want 2 (trailing garbage record dropped)", len(j.DoneSet()))
	}
	if j.IsDone(2, 99) {
		t.Error("corrupt trailing record should not be recoverable")
	}
}

func TestFlush_IsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")
	j, _ := Open(path)

	for i := 0; i < 5; i++ {
		if err := j.MarkDone(Record{ChunkIdx: i, FrameCount: 10 * (i + 1), OutputFile: "chunk.ivf"}); err != nil {
			t.Fatalf("MarkDone(%d) error = %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("os.ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s after successful flush", e.Name())
		}
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(reloaded.DoneSet()) != 5 {
		t.Errorf("DoneSet() len = %d, want 5", len(reloaded.DoneSet()))
	}
}
