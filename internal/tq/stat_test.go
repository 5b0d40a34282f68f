package tq

import "testing"

func TestParseStatistic(t *testing.T) {
	cases := []struct {
		in         string
		wantStat   Statistic
		wantPctile float64
	}{
		{"", StatMean, 0},
		{"mean", StatMean, 0},
		{"median", StatMedian, 50},
		{"harmonic", StatHarmonic, 0},
		{"rms", StatRMS, 0},
		{"stddev", StatStddev, 0},
		{"mode", StatMode, 0},
		{"min", StatMin, 0},
		{"max", StatMax, 0},
		{"p5", StatPercentile, 5},
		{"p95", StatPercentile, 95},
	}
	for _, c := range cases {
		stat, p, err := ParseStatistic(c.in)
		if err != nil {
			t.Errorf("ParseStatistic(%q) error = %v", c.in, err)
			continue
		}
		if stat != c.wantStat || p != c.wantPctile {
			t.Errorf("ParseStatistic(%q) = %v, %v, want %v, %v", c.in, stat, p, c.wantStat, c.wantPctile)
		}
	}

	if _, _, err := ParseStatistic("bogus"); err == nil {
		t.Error("ParseStatistic(bogus) should error")
	}
	if _, _, err := ParseStatistic("p200"); err == nil {
		t.Error("ParseStatistic(p200) should error (out of range)")
	}
}

func TestAutoStatistic(t *testing.T) {
	if got := AutoStatistic(1); got != StatMean {
		t.Errorf("AutoStatistic(1) = %v, want StatMean", got)
	}
	if got := AutoStatistic(3); got != StatHarmonic {
		t.Errorf("AutoStatistic(3) = %v, want StatHarmonic", got)
	}
}

func TestAggregate_Mean(t *testing.T) {
	got := Aggregate(StatMean, 0, []float64{60, 70, 80})
	if got != 70 {
		t.Errorf("Aggregate(mean) = %v, want 70", got)
	}
}

func TestAggregate_Percentile(t *testing.T) {
	scores := []float64{60, 70, 80, 90, 100}
	got := Aggregate(StatPercentile, 0, scores)
	if got != 60 {
		t.Errorf("Aggregate(p0) = %v, want 60", got)
	}
	got = Aggregate(StatPercentile, 100, scores)
	if got != 100 {
		t.Errorf("Aggregate(p100) = %v, want 100", got)
	}
}

func TestAggregate_MinMax(t *testing.T) {
	scores := []float64{60, 70, 80}
	if got := Aggregate(StatMin, 0, scores); got != 60 {
		t.Errorf("Aggregate(min) = %v, want 60", got)
	}
	if got := Aggregate(StatMax, 0, scores); got != 80 {
		t.Errorf("Aggregate(max) = %v, want 80", got)
	}
}

func TestAggregate_HarmonicLessThanOrEqualMean(t *testing.T) {
	scores := []float64{50, 70, 90}
	h := Aggregate(StatHarmonic, 0, scores)
	m := Aggregate(StatMean, 0, scores)
	if h > m {
		t.Errorf("harmonic mean %v should be <= arithmetic mean %v", h, m)
	}
}
