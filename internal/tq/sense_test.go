package tq

import "testing"

func TestMinQWrongSide(t *testing.T) {
	tests := []struct {
		name   string
		sense  MetricSense
		score  float64
		target float64
		want   bool
	}{
		{"higher-is-better, below target", HigherIsBetter, 60, 70, true},
		{"higher-is-better, at target", HigherIsBetter, 70, 70, true},
		{"higher-is-better, above target", HigherIsBetter, 80, 70, false},
		{"lower-is-better, above target", LowerIsBetter, 5, 2, true},
		{"lower-is-better, at target", LowerIsBetter, 2, 2, true},
		{"lower-is-better, below target", LowerIsBetter, 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sense.minQWrongSide(tt.score, tt.target); got != tt.want {
				t.Errorf("minQWrongSide(%v, %v) = %v, want %v", tt.score, tt.target, got, tt.want)
			}
		})
	}
}

func TestMaxQWrongSide(t *testing.T) {
	tests := []struct {
		name   string
		sense  MetricSense
		score  float64
		target float64
		want   bool
	}{
		{"higher-is-better, above target", HigherIsBetter, 80, 70, true},
		{"higher-is-better, at target", HigherIsBetter, 70, 70, true},
		{"higher-is-better, below target", HigherIsBetter, 60, 70, false},
		{"lower-is-better, below target", LowerIsBetter, 1, 2, true},
		{"lower-is-better, at target", LowerIsBetter, 2, 2, true},
		{"lower-is-better, above target", LowerIsBetter, 5, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sense.maxQWrongSide(tt.score, tt.target); got != tt.want {
				t.Errorf("maxQWrongSide(%v, %v) = %v, want %v", tt.score, tt.target, got, tt.want)
			}
		})
	}
}

func TestMeetsTarget(t *testing.T) {
	tests := []struct {
		name   string
		sense  MetricSense
		score  float64
		target float64
		want   bool
	}{
		{"higher-is-better, meets", HigherIsBetter, 75, 70, true},
		{"higher-is-better, falls short", HigherIsBetter, 65, 70, false},
		{"lower-is-better, meets", LowerIsBetter, 1, 2, true},
		{"lower-is-better, falls short", LowerIsBetter, 3, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sense.meetsTarget(tt.score, tt.target); got != tt.want {
				t.Errorf("meetsTarget(%v, %v) = %v, want %v", tt.score, tt.target, got, tt.want)
			}
		})
	}
}
