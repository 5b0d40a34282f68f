package tq

// MetricSense tells the search which direction of the metric scale means
// "higher quality": SSIMULACRA2, VMAF, and XPSNR are HigherIsBetter;
// Butteraugli is LowerIsBetter (it measures perceptual error, not
// similarity). Every target comparison the search procedure makes runs
// through one of this type's methods, so the bracket logic never
// special-cases the metric family directly.
type MetricSense int

const (
	HigherIsBetter MetricSense = iota
	LowerIsBetter
)

// minQWrongSide implements the search procedure's min_q early exit: true
// when even the best achievable quality in the quantizer interval
// doesn't clear the target, so min_q should be accepted outright.
func (s MetricSense) minQWrongSide(score, target float64) bool {
	if s == LowerIsBetter {
		return score >= target
	}
	return score <= target
}

// maxQWrongSide is minQWrongSide's mirror image for max_q: true when even
// the worst achievable quality already clears the target.
func (s MetricSense) maxQWrongSide(score, target float64) bool {
	if s == LowerIsBetter {
		return score <= target
	}
	return score >= target
}

// meetsTarget reports whether score sits on the bracket's q_lo side: the
// side reached by quantizers at or below whichever one produced it. The
// search procedure's step 3 uses this to pick which bracket endpoint a
// new probe replaces, and BestProbe uses it to avoid crossing the target
// on the worse side when selecting the final quantizer.
func (s MetricSense) meetsTarget(score, target float64) bool {
	if s == LowerIsBetter {
		return score <= target
	}
	return score >= target
}
