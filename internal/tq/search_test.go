package tq

import "testing"

func TestNextCRF_ProbesEndpointsFirst(t *testing.T) {
	state := NewState(72.5, 8, 48, HigherIsBetter)
	cfg := &Config{Target: 72.5, MaxRounds: 4, Sense: HigherIsBetter}

	crf, ok := NextCRF(state, cfg)
	if !ok || crf != 8 {
		t.Fatalf("round 1 = (%v, %v), want (8, true)", crf, ok)
	}
	state.AddProbe(crf, 80, nil, 0) // min_q comfortably clears target
	if ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = true after min_q, want false (max_q not probed yet)")
	}

	crf, ok = NextCRF(state, cfg)
	if !ok || crf != 48 {
		t.Fatalf("round 2 = (%v, %v), want (48, true)", crf, ok)
	}
}

func TestNextCRF_MinQEarlyExit(t *testing.T) {
	// Even the best achievable quality (min_q) doesn't clear target.
	state := NewState(90, 8, 48, HigherIsBetter)
	cfg := &Config{Target: 90, MaxRounds: 4, Sense: HigherIsBetter}

	crf, _ := NextCRF(state, cfg)
	state.AddProbe(crf, 70, nil, 0)
	if !ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = false, want true (min_q wrong side)")
	}
	if best := state.BestProbe(); best == nil || best.CRF != 8 {
		t.Fatalf("BestProbe() = %+v, want CRF 8", best)
	}
}

func TestNextCRF_MaxQEarlyExit(t *testing.T) {
	// Even the worst achievable quality (max_q) already clears target.
	state := NewState(50, 8, 48, HigherIsBetter)
	cfg := &Config{Target: 50, MaxRounds: 4, Sense: HigherIsBetter}

	crf, _ := NextCRF(state, cfg)
	state.AddProbe(crf, 90, nil, 0)
	if ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = true after min_q, want false")
	}

	crf, _ = NextCRF(state, cfg)
	state.AddProbe(crf, 60, nil, 0)
	if !ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = false, want true (max_q wrong side)")
	}
	if best := state.BestProbe(); best == nil || best.CRF != 48 {
		t.Fatalf("BestProbe() = %+v, want CRF 48", best)
	}
}

func TestNextCRF_SingleProbeBudgetUsesMidpoint(t *testing.T) {
	state := NewState(70, 20, 30, HigherIsBetter)
	cfg := &Config{Target: 70, MaxRounds: 1, Sense: HigherIsBetter}

	crf, ok := NextCRF(state, cfg)
	if !ok || crf != 25 {
		t.Fatalf("NextCRF() = (%v, %v), want (25, true)", crf, ok)
	}
	state.AddProbe(crf, 65, nil, 0)
	if !ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = false, want true (budget exhausted)")
	}
}

func TestNextCRF_InteriorProbeInterpolates(t *testing.T) {
	state := NewState(70, 0, 100, HigherIsBetter)
	cfg := &Config{Target: 70, MaxRounds: 4, Sense: HigherIsBetter}

	crf, _ := NextCRF(state, cfg) // min_q = 0
	state.AddProbe(crf, 100, nil, 0)
	ShouldComplete(state, cfg)

	crf, _ = NextCRF(state, cfg) // max_q = 100
	state.AddProbe(crf, 0, nil, 0)
	ShouldComplete(state, cfg)

	// Score decreases linearly with quantizer here, so interpolating
	// toward target 70 from (0,100)-(100,0) lands near quantizer 30.
	crf, ok := NextCRF(state, cfg)
	if !ok {
		t.Fatal("NextCRF() ok = false, want true")
	}
	if crf != 30 {
		t.Errorf("interior candidate = %v, want 30", crf)
	}
}

func TestNextCRF_FlatChunkStopsAtBracket(t *testing.T) {
	state := NewState(70, 10, 40, HigherIsBetter)
	cfg := &Config{Target: 70, MaxRounds: 4, Sense: HigherIsBetter}

	crf, _ := NextCRF(state, cfg)
	state.AddProbe(crf, 75, nil, 0)
	ShouldComplete(state, cfg)

	crf, _ = NextCRF(state, cfg)
	state.AddProbe(crf, 75, nil, 0) // identical endpoint scores
	if !ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = false, want true (flat chunk)")
	}
	if best := state.BestProbe(); best == nil || best.CRF != 10 {
		t.Fatalf("BestProbe() = %+v, want the lower quantizer (10)", best)
	}
}

func TestNextCRF_BracketCollapseTerminates(t *testing.T) {
	state := NewState(70, 10, 11, HigherIsBetter)
	cfg := &Config{Target: 70, MaxRounds: 10, Sense: HigherIsBetter}

	crf, _ := NextCRF(state, cfg)
	state.AddProbe(crf, 80, nil, 0)
	ShouldComplete(state, cfg)

	crf, _ = NextCRF(state, cfg)
	state.AddProbe(crf, 60, nil, 0)
	if !ShouldComplete(state, cfg) {
		t.Fatal("ShouldComplete() = false, want true (adjacent-integer bracket)")
	}
}

func TestNextUnprobedCandidate_ShiftsOffDuplicates(t *testing.T) {
	state := NewState(70, 0, 20, HigherIsBetter)
	state.AddProbe(10, 70, nil, 0) // the interpolated candidate itself
	state.AddProbe(11, 68, nil, 0)

	got, ok := nextUnprobedCandidate(state, 10, 0, 20)
	if !ok {
		t.Fatal("nextUnprobedCandidate() ok = false, want true")
	}
	if got == 10 || got == 11 {
		t.Errorf("nextUnprobedCandidate() = %v, repeated a probed quantizer", got)
	}
}

func TestNextUnprobedCandidate_ExhaustedBracketTerminates(t *testing.T) {
	state := NewState(70, 9, 11, HigherIsBetter)
	state.AddProbe(10, 70, nil, 0)

	if _, ok := nextUnprobedCandidate(state, 10, 9, 11); ok {
		t.Fatal("nextUnprobedCandidate() ok = true, want false (no integer left in (9,11))")
	}
}

func TestStateAddProbe(t *testing.T) {
	state := NewState(72.5, 8, 48, HigherIsBetter)

	state.AddProbe(28, 65, []float64{64, 65, 66}, 1000000)
	state.AddProbe(22, 75, []float64{74, 75, 76}, 800000)

	if len(state.Probes) != 2 {
		t.Errorf("State has %d probes, want 2", len(state.Probes))
	}
	if state.Probes[0].CRF != 28 {
		t.Errorf("First probe CRF = %v, want 28", state.Probes[0].CRF)
	}
	if state.Probes[1].Score != 75 {
		t.Errorf("Second probe score = %v, want 75", state.Probes[1].Score)
	}
}

func TestStateBestProbe(t *testing.T) {
	state := NewState(72.5, 8, 48, HigherIsBetter)

	if best := state.BestProbe(); best != nil {
		t.Errorf("BestProbe() with no probes = %v, want nil", best)
	}

	state.AddProbe(35, 65, nil, 1200000)
	state.AddProbe(28, 73, nil, 1000000) // closest to target, meets it
	state.AddProbe(22, 78, nil, 800000)

	best := state.BestProbe()
	if best == nil || best.CRF != 28 {
		t.Fatalf("BestProbe() = %+v, want CRF 28 (closest to target 72.5)", best)
	}
}

func TestStateBestProbe_PrefersMeetingSideOverCloserMiss(t *testing.T) {
	state := NewState(70, 8, 48, HigherIsBetter)

	state.AddProbe(30, 69, nil, 0)  // closer numerically but falls short
	state.AddProbe(22, 71, nil, 0)  // farther but clears the target

	best := state.BestProbe()
	if best == nil || best.CRF != 22 {
		t.Fatalf("BestProbe() = %+v, want CRF 22 (meets target, not just closest)", best)
	}
}
