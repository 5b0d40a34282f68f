// Package split implements the scene-aware split planner: turning scene
// detector output, forced keyframes, and zone endpoints into the
// deterministic, partition-covering chunk list the worker pipeline
// consumes.
package split

import (
	"fmt"
	"sort"

	"github.com/av1an-go/av1an/internal/chunk"
)

// Options configures a single Plan invocation.
type Options struct {
	FrameCount      int
	DetectedCuts    []int
	ForcedKeyframes []int
	Zones           []chunk.Zone
	MinSceneLen     int // 0 disables collapsing
	ExtraSplit      int // 0 disables extra-splitting
}

// Plan runs the four-step algorithm from §4.1:
//
//  1. union detected cuts, forced keyframes, zone endpoints, {0, N}
//  2. collapse runs shorter than MinSceneLen
//  3. extra-split runs longer than ExtraSplit
//  4. emit ascending-index chunks with their zone override attached
func Plan(opts Options) ([]chunk.Chunk, error) {
	if opts.FrameCount <= 0 {
		return nil, fmt.Errorf("split: frame count must be positive, got %d", opts.FrameCount)
	}

	bounds := unionBounds(opts)
	bounds = collapseShortRuns(bounds, opts.MinSceneLen)
	bounds = extraSplitLongRuns(bounds, opts.ExtraSplit)

	chunks := make([]chunk.Chunk, 0, len(bounds)-1)
	for i := 0; i < len(bounds)-1; i++ {
		c := chunk.Chunk{
			Idx:   i,
			Start: bounds[i],
			End:   bounds[i+1],
		}
		if z := zoneFor(opts.Zones, c.Start, c.End); z != nil {
			c.ApplyZone(z)
		}
		chunks = append(chunks, c)
	}

	if err := Validate(chunks, opts.FrameCount); err != nil {
		return nil, err
	}
	return chunks, nil
}

// unionBounds builds the deduplicated, sorted boundary set from detected
// cuts, forced keyframes, zone endpoints, and the implicit {0, frameCount}.
func unionBounds(opts Options) []int {
	set := map[int]struct{}{0: {}, opts.FrameCount: {}}
	add := func(vs []int) {
		for _, v := range vs {
			if v > 0 && v < opts.FrameCount {
				set[v] = struct{}{}
			}
		}
	}
	add(opts.DetectedCuts)
	add(opts.ForcedKeyframes)
	for _, z := range opts.Zones {
		add([]int{z.Start, z.End})
	}

	bounds := make([]int, 0, len(set))
	for v := range set {
		bounds = append(bounds, v)
	}
	sort.Ints(bounds)
	return bounds
}

// collapseShortRuns merges scenes shorter than minLen into the adjacent
// scene with the earlier boundary (i.e. the preceding scene), falling
// back to merging forward when the short scene is the first one. Runs
// until every remaining interior scene meets minLen or only two
// boundaries (one scene) remain.
func collapseShortRuns(bounds []int, minLen int) []int {
	if minLen <= 0 || len(bounds) <= 2 {
		return bounds
	}

	for {
		mergeAt := -1
		for i := 0; i < len(bounds)-1; i++ {
			if bounds[i+1]-bounds[i] < minLen {
				mergeAt = i
				break
			}
		}
		if mergeAt < 0 || len(bounds) <= 2 {
			return bounds
		}

		// Merge by dropping the boundary on the "shorter adjacency" side.
		// Prefer merging into the preceding scene (drop bounds[mergeAt],
		// the earlier boundary of the short run survives via the
		// previous scene's start); if this is the first scene (no
		// preceding boundary other than the implicit 0), merge forward
		// by dropping bounds[mergeAt+1] instead.
		if mergeAt == 0 {
			bounds = append(bounds[:1], bounds[2:]...)
		} else {
			bounds = append(bounds[:mergeAt], bounds[mergeAt+1:]...)
		}
	}
}

// extraSplitLongRuns inserts evenly spaced interior points into any scene
// longer than maxLen until every scene is at most maxLen frames.
func extraSplitLongRuns(bounds []int, maxLen int) []int {
	if maxLen <= 0 {
		return bounds
	}

	out := make([]int, 0, len(bounds))
	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]
		out = append(out, start)
		length := end - start
		if length <= maxLen {
			continue
		}
		n := (length + maxLen - 1) / maxLen // ceil(length/maxLen)
		for k := 1; k < n; k++ {
			out = append(out, start+(length*k)/n)
		}
	}
	out = append(out, bounds[len(bounds)-1])
	return out
}

// zoneFor returns the zone fully containing [start,end), if any. A chunk
// spans at most one zone by construction: zone endpoints are seeded into
// the boundary set in step 1, so no chunk straddles a zone edge.
func zoneFor(zones []chunk.Zone, start, end int) *chunk.Zone {
	for i := range zones {
		if zones[i].Contains(start, end) {
			return &zones[i]
		}
	}
	return nil
}

// Validate checks the plan-level invariants of §3 and §8: chunks are
// pairwise disjoint, cover [0, frameCount) exactly, and are sorted by
// start.
func Validate(chunks []chunk.Chunk, frameCount int) error {
	if len(chunks) == 0 {
		return fmt.Errorf("split: empty plan for frame count %d", frameCount)
	}
	if chunks[0].Start != 0 {
		return fmt.Errorf("split: plan does not start at 0, got %d", chunks[0].Start)
	}
	for i, c := range chunks {
		if c.Idx != i {
			return fmt.Errorf("split: chunk index %d out of order", c.Idx)
		}
		if c.End <= c.Start {
			return fmt.Errorf("split: chunk %d has non-positive length [%d,%d)", i, c.Start, c.End)
		}
		if i > 0 && c.Start != chunks[i-1].End {
			return fmt.Errorf("split: gap/overlap between chunk %d and %d", i-1, i)
		}
	}
	if last := chunks[len(chunks)-1]; last.End != frameCount {
		return fmt.Errorf("split: plan ends at %d, want %d", last.End, frameCount)
	}
	return nil
}
