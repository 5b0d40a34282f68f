package tq

import "math"

// Probe represents a single encoding attempt at a specific quantizer.
type Probe struct {
	// CRF is the quantizer used for this probe.
	CRF float64

	// Score is the chunk's aggregated metric score for this probe.
	Score float64

	// FrameScores holds the per-frame scores Score was aggregated from.
	FrameScores []float64

	// Size is the probe's output size in bytes.
	Size uint64
}

// State tracks one chunk's target-quality search: every probe issued so
// far and, once both endpoints have been probed, the (q_lo, s_lo)/
// (q_hi, s_hi) bracket the interior probes narrow toward the target.
type State struct {
	Probes []Probe

	QPMin float64
	QPMax float64
	Target float64
	Sense  MetricSense

	// Round counts probes issued so far (1 = min_q, 2 = max_q, 3+ =
	// interior probes).
	Round   int
	LastCRF float64

	// QLo/SLo is the bracket endpoint on the target's "meets" side;
	// QHi/SHi is the endpoint on the other side. QLo/SLo is set once
	// min_q's probe has been folded in and QHi/SHi once max_q's has
	// (ShouldComplete, search procedure step 3).
	QLo, SLo *float64
	QHi, SHi *float64
}

// NewState creates a fresh target-quality search state for one chunk.
func NewState(target, qpMin, qpMax float64, sense MetricSense) *State {
	return &State{
		Probes: make([]Probe, 0, 8),
		QPMin:  qpMin,
		QPMax:  qpMax,
		Target: target,
		Sense:  sense,
	}
}

// AddProbe records a completed probe result.
func (s *State) AddProbe(crf, score float64, frameScores []float64, size uint64) {
	s.Probes = append(s.Probes, Probe{
		CRF:         crf,
		Score:       score,
		FrameScores: frameScores,
		Size:        size,
	})
}

// BestProbe implements the search procedure's selection rule (step 5):
// the probed quantizer closest to target without crossing it on the
// worse side, tie-broken toward the lower quantizer (higher quality). A
// probe on the target's "meets" side always beats one on the worse side,
// regardless of which is numerically closer.
func (s *State) BestProbe() *Probe {
	if len(s.Probes) == 0 {
		return nil
	}

	var best *Probe
	var bestMeets bool
	var bestDiff float64

	for i := range s.Probes {
		p := &s.Probes[i]
		meets := s.Sense.meetsTarget(p.Score, s.Target)
		diff := math.Abs(p.Score - s.Target)

		replace := best == nil ||
			(meets && !bestMeets) ||
			(meets == bestMeets && diff < bestDiff) ||
			(meets == bestMeets && diff == bestDiff && p.CRF < best.CRF)
		if replace {
			best, bestMeets, bestDiff = p, meets, diff
		}
	}

	return best
}

// ProbeEntry summarizes a single probe result for logging.
type ProbeEntry struct {
	CRF   float64
	Score float64
	Size  uint64
}
