// Package journal persists which chunks have finished encoding so an
// interrupted run can resume without re-encoding completed work.
package journal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Record is one completed chunk: its frame count and output size at the
// time of completion, the file it was written to, and an optional chosen
// quantizer (ChosenQ, nil when absent). The worker pipeline does not set
// ChosenQ, so its records carry nil for target-quality and fixed-CRF
// chunks alike.
type Record struct {
	ChunkIdx   int
	FrameCount int
	Bytes      int64
	OutputFile string
	ChosenQ    *float64
}

// Journal is the working directory's single progress file. All reads and
// writes are serialized through mu; Flush rewrites the whole file via a
// temp-file-then-rename so a crash mid-write never corrupts the record a
// reader would otherwise see.
type Journal struct {
	mu      sync.Mutex
	path    string
	records map[int]Record

	// IgnoreFrameMismatch makes IsDone accept a recorded chunk whose
	// frame count disagrees with the current plan, trusting the journal
	// over a recount (the same override DetectOrLoad honors for the
	// persisted scene file).
	IgnoreFrameMismatch bool
}

// Open loads an existing journal at path, tolerating a truncated tail
// left by a crash mid-write. A missing file is not an error: it means no
// chunk has completed yet.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path, records: make(map[int]Record)}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Journal) load() error {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("journal: read %s: %w", j.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		rec, err := parseRecord(line)
		if err != nil {
			// Trailing garbage from a crash mid-write; everything before
			// this line is still a fully parseable, self-consistent
			// record set, so stop here rather than erroring out.
			break
		}
		j.records[rec.ChunkIdx] = rec
	}
	return nil
}

// MarkDone records idx as complete and flushes the journal to disk.
func (j *Journal) MarkDone(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records[rec.ChunkIdx] = rec
	return j.flushLocked()
}

// Lookup returns the record for idx and whether one exists.
func (j *Journal) Lookup(idx int) (Record, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec, ok := j.records[idx]
	return rec, ok
}

// IsDone reports whether idx is recorded complete with exactly
// expectedFrames frames. A frame-count mismatch (a plan that changed
// since the journal was written, e.g. different scene detection
// settings) is treated as not done so the chunk re-encodes.
func (j *Journal) IsDone(idx, expectedFrames int) bool {
	rec, ok := j.Lookup(idx)
	if !ok {
		return false
	}
	return rec.FrameCount == expectedFrames || j.IgnoreFrameMismatch
}

// DoneSet returns the set of chunk indices recorded complete.
func (j *Journal) DoneSet() map[int]bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	set := make(map[int]bool, len(j.records))
	for idx := range j.records {
		set[idx] = true
	}
	return set
}

// TotalEncodedFrames sums FrameCount across all recorded chunks, used to
// seed progress reporting on resume.
func (j *Journal) TotalEncodedFrames() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	total := 0
	for _, rec := range j.records {
		total += rec.FrameCount
	}
	return total
}

// TotalEncodedSize sums Bytes across all recorded chunks.
func (j *Journal) TotalEncodedSize() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	var total int64
	for _, rec := range j.records {
		total += rec.Bytes
	}
	return total
}

// Records returns a snapshot of all records sorted by chunk index.
func (j *Journal) Records() []Record {
	j.mu.Lock()
	defer j.mu.Unlock()
	return sortedRecords(j.records)
}

func sortedRecords(m map[int]Record) []Record {
	recs := make([]Record, 0, len(m))
	for _, r := range m {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, k int) bool { return recs[i].ChunkIdx < recs[k].ChunkIdx })
	return recs
}

func (j *Journal) flushLocked() error {
	var buf bytes.Buffer
	for _, rec := range sortedRecords(j.records) {
		q := "-"
		if rec.ChosenQ != nil {
			q = strconv.FormatFloat(*rec.ChosenQ, 'f', -1, 64)
		}
		fmt.Fprintf(&buf, "%d %d %d %s %s\n", rec.ChunkIdx, rec.FrameCount, rec.Bytes, rec.OutputFile, q)
	}

	dir := filepath.Dir(j.path)
	tmp, err := os.CreateTemp(dir, ".journal-*.tmp")
	if err != nil {
		return fmt.Errorf("journal: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("journal: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("journal: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("journal: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("journal: rename temp file: %w", err)
	}
	return nil
}

// parseRecord parses one line of the form
// "chunkIdx frameCount bytes outputFile chosenQ". chosenQ is "-" when
// absent.
func parseRecord(line string) (Record, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Record{}, fmt.Errorf("journal: malformed record %q", line)
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("journal: bad chunk index %q: %w", fields[0], err)
	}
	frames, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("journal: bad frame count %q: %w", fields[1], err)
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("journal: bad byte count %q: %w", fields[2], err)
	}

	var chosenQ *float64
	if fields[4] != "-" {
		q, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return Record{}, fmt.Errorf("journal: bad chosen quantizer %q: %w", fields[4], err)
		}
		chosenQ = &q
	}

	return Record{
		ChunkIdx:   idx,
		FrameCount: frames,
		Bytes:      size,
		OutputFile: fields[3],
		ChosenQ:    chosenQ,
	}, nil
}
