package split

import (
	"testing"

	"github.com/av1an-go/av1an/internal/chunk"
)

func TestPlan_NoCutsSingleChunk(t *testing.T) {
	chunks, err := Plan(Options{FrameCount: 1000})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[0].End != 1000 {
		t.Errorf("chunk 0 = [%d,%d), want [0,1000)", chunks[0].Start, chunks[0].End)
	}
}

func TestPlan_DetectedCutsPartitionExactly(t *testing.T) {
	chunks, err := Plan(Options{
		FrameCount:   10000,
		DetectedCuts: []int{250, 1000, 8000},
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []int{0, 250, 1000, 8000, 10000}
	if len(chunks) != len(want)-1 {
		t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(want)-1)
	}
	for i, c := range chunks {
		if c.Start != want[i] || c.End != want[i+1] {
			t.Errorf("chunk %d = [%d,%d), want [%d,%d)", i, c.Start, c.End, want[i], want[i+1])
		}
	}

	if err := Validate(chunks, 10000); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPlan_ForcedKeyframesAlwaysBoundaries(t *testing.T) {
	chunks, err := Plan(Options{
		FrameCount:      1000,
		ForcedKeyframes: []int{333, 777},
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	foundStart := map[int]bool{}
	for _, c := range chunks {
		foundStart[c.Start] = true
	}
	for _, kf := range []int{333, 777} {
		if !foundStart[kf] {
			t.Errorf("forced keyframe %d is not a chunk boundary", kf)
		}
	}
}

func TestPlan_ExtraSplitCapsChunkLength(t *testing.T) {
	chunks, err := Plan(Options{
		FrameCount:   10000,
		DetectedCuts: []int{250, 1000, 8000},
		ExtraSplit:   240,
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	for _, c := range chunks {
		if c.Frames() > 240 {
			t.Errorf("chunk %d has %d frames, want <= 240", c.Idx, c.Frames())
		}
	}
	if err := Validate(chunks, 10000); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPlan_MinSceneLenCollapsesShortRuns(t *testing.T) {
	// Cuts at 10 and 20 create a 10-frame middle scene, below minSceneLen.
	chunks, err := Plan(Options{
		FrameCount:   1000,
		DetectedCuts: []int{10, 20},
		MinSceneLen:  24,
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	for _, c := range chunks[:len(chunks)-1] {
		if c.Frames() < 24 {
			t.Errorf("chunk %d has %d frames, want >= 24 (except possibly the final chunk)", c.Idx, c.Frames())
		}
	}
	if err := Validate(chunks, 1000); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestPlan_ZoneOverrideAttachedToContainingChunk(t *testing.T) {
	q := 40
	chunks, err := Plan(Options{
		FrameCount: 1000,
		Zones: []chunk.Zone{
			{Start: 200, End: 400, Encoder: "rav1e", ForcedQ: &q, Reset: true},
		},
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	var zoned *chunk.Chunk
	for i := range chunks {
		if chunks[i].Start == 200 && chunks[i].End == 400 {
			zoned = &chunks[i]
		}
	}
	if zoned == nil {
		t.Fatalf("no chunk exactly spans the zone [200,400)")
	}
	if zoned.Encoder != "rav1e" {
		t.Errorf("zoned chunk encoder = %q, want rav1e", zoned.Encoder)
	}
	if zoned.ForcedQ == nil || *zoned.ForcedQ != 40 {
		t.Errorf("zoned chunk ForcedQ = %v, want 40", zoned.ForcedQ)
	}

	for _, c := range chunks {
		if c.Start != 200 && c.Zone != nil {
			t.Errorf("chunk [%d,%d) unexpectedly has a zone applied", c.Start, c.End)
		}
	}
}

func TestPlan_InvalidFrameCount(t *testing.T) {
	if _, err := Plan(Options{FrameCount: 0}); err == nil {
		t.Error("Plan() with FrameCount=0 should error")
	}
}

func TestValidate_RejectsGap(t *testing.T) {
	chunks := []chunk.Chunk{
		{Idx: 0, Start: 0, End: 100},
		{Idx: 1, Start: 150, End: 200},
	}
	if err := Validate(chunks, 200); err == nil {
		t.Error("Validate() should reject a gap between chunks")
	}
}

func TestValidate_RejectsWrongEnd(t *testing.T) {
	chunks := []chunk.Chunk{
		{Idx: 0, Start: 0, End: 100},
	}
	if err := Validate(chunks, 200); err == nil {
		t.Error("Validate() should reject a plan that doesn't cover the full frame count")
	}
}
