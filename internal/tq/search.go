package tq

import "math"

// NextCRF returns the quantizer state's search procedure should probe
// next, and whether a probe should be issued at all. The first two
// probes are always the interval's endpoints (min_q then max_q, the
// early-exit anchors); every probe after that is an interior probe
// computed by bracket interpolation. ok is false once the bracket has no
// unexplored integer candidate left, telling the caller to stop without
// spending another probe.
func NextCRF(state *State, cfg *Config) (crf float64, ok bool) {
	state.Round++

	switch {
	case state.Round == 1:
		if cfg.MaxRounds <= 1 {
			// No budget for the endpoint dance; spend the single probe
			// at the interval midpoint instead.
			crf = midpoint(state.QPMin, state.QPMax)
		} else {
			crf = state.QPMin
		}
	case state.Round == 2:
		crf = state.QPMax
	default:
		c, found := interiorProbe(state)
		if !found {
			return 0, false
		}
		crf = c
	}

	state.LastCRF = crf
	return crf, true
}

// interiorProbe computes the next interior candidate by linearly
// interpolating quantizer against score toward the target, clamped to
// the open interval (q_lo, q_hi), shifting off any quantizer already
// probed.
func interiorProbe(state *State) (float64, bool) {
	if state.QLo == nil || state.QHi == nil {
		return midpoint(state.QPMin, state.QPMax), true
	}

	qLo, qHi := *state.QLo, *state.QHi
	if qHi-qLo <= 1 {
		return 0, false
	}

	sLo, sHi := *state.SLo, *state.SHi
	candidate := roundCRF(qLo + (state.Target-sLo)*(qHi-qLo)/(sHi-sLo))
	candidate = clampOpenInterval(candidate, qLo, qHi)

	return nextUnprobedCandidate(state, candidate, qLo, qHi)
}

// clampOpenInterval restricts v to the integers strictly between lo and
// hi, per search procedure step 2.
func clampOpenInterval(v, lo, hi float64) float64 {
	if v <= lo {
		return lo + 1
	}
	if v >= hi {
		return hi - 1
	}
	return v
}

// nextUnprobedCandidate shifts candidate off any quantizer already in
// state.Probes, walking toward whichever side of the bracket has more
// unexplored room first, then the other side, before giving up.
func nextUnprobedCandidate(state *State, candidate, qLo, qHi float64) (float64, bool) {
	if !probedAt(state, candidate) {
		return candidate, true
	}

	dir := 1.0
	if qHi-candidate < candidate-qLo {
		dir = -1.0
	}
	for _, d := range []float64{dir, -dir} {
		for c := candidate + d; c > qLo && c < qHi; c += d {
			if !probedAt(state, c) {
				return c, true
			}
		}
	}
	return 0, false
}

func probedAt(state *State, crf float64) bool {
	for _, p := range state.Probes {
		if p.CRF == crf {
			return true
		}
	}
	return false
}

// ShouldComplete folds the most recent probe into the bracket (search
// procedure step 3) and reports whether the search should stop: an
// early-exit anchor fired, N_probes is exhausted, or the bracket has
// collapsed to adjacent integers (step 4).
func ShouldComplete(state *State, cfg *Config) bool {
	last := &state.Probes[len(state.Probes)-1]

	switch {
	case state.Round == 1:
		if cfg.MaxRounds <= 1 {
			break
		}
		if state.Sense.minQWrongSide(last.Score, state.Target) {
			return true
		}
		lo, slo := last.CRF, last.Score
		state.QLo, state.SLo = &lo, &slo

	case state.Round == 2:
		if state.Sense.maxQWrongSide(last.Score, state.Target) {
			return true
		}
		hi, shi := last.CRF, last.Score
		state.QHi, state.SHi = &hi, &shi
		if *state.SLo == shi {
			// Flat chunk: both endpoints score identically. Accept the
			// lower quantizer (BestProbe's tie-break) rather than divide
			// by zero in the next interpolation.
			return true
		}

	default:
		if state.Sense.meetsTarget(last.Score, state.Target) {
			lo, slo := last.CRF, last.Score
			state.QLo, state.SLo = &lo, &slo
		} else {
			hi, shi := last.CRF, last.Score
			state.QHi, state.SHi = &hi, &shi
		}
	}

	if state.Round >= cfg.MaxRounds {
		return true
	}
	if state.QLo != nil && state.QHi != nil && *state.QHi-*state.QLo <= 1 {
		return true
	}
	return false
}

func midpoint(min, max float64) float64 {
	return roundCRF((min + max) / 2)
}

// roundCRF rounds a quantizer value to the nearest integer.
func roundCRF(crf float64) float64 {
	return math.Round(crf)
}
