package tq

import (
	"fmt"
	"math"
	"sort"
)

// Statistic is a per-chunk frame-score aggregation method: mean or a
// percentile, covering the full set a probing-statistic flag needs to
// choose between.
type Statistic int

const (
	StatMean Statistic = iota
	StatMedian
	StatHarmonic
	StatRMS
	StatPercentile
	StatStddev
	StatMode
	StatMin
	StatMax
)

// ParseStatistic parses a --probing-statistic value. Percentile values
// are written "pNN" (e.g. "p5" for the 5th percentile), matching the
// teacher's MetricMode convention.
func ParseStatistic(s string) (stat Statistic, percentile float64, err error) {
	switch {
	case s == "" || s == "mean":
		return StatMean, 0, nil
	case s == "median":
		return StatMedian, 50, nil
	case s == "harmonic":
		return StatHarmonic, 0, nil
	case s == "rms":
		return StatRMS, 0, nil
	case s == "stddev":
		return StatStddev, 0, nil
	case s == "mode":
		return StatMode, 0, nil
	case s == "min":
		return StatMin, 0, nil
	case s == "max":
		return StatMax, 0, nil
	case len(s) > 1 && s[0] == 'p':
		var p float64
		if _, scanErr := fmt.Sscanf(s[1:], "%g", &p); scanErr != nil {
			return 0, 0, fmt.Errorf("tq: invalid percentile statistic %q: %w", s, scanErr)
		}
		if p < 0 || p > 100 {
			return 0, 0, fmt.Errorf("tq: percentile %q out of range [0,100]", s)
		}
		return StatPercentile, p, nil
	default:
		return 0, 0, fmt.Errorf("tq: unknown probing statistic %q", s)
	}
}

// AutoStatistic implements the --probing-statistic=auto rule: harmonic
// mean punishes low-scoring outlier frames more than an arithmetic mean,
// which matters once more than one sample is drawn per chunk; with a
// single sample per chunk the two are equivalent so plain mean is used.
func AutoStatistic(probingRate int) Statistic {
	if probingRate > 1 {
		return StatHarmonic
	}
	return StatMean
}

// Aggregate reduces per-frame scores to the single score the search loop
// compares against the target. scores must be non-empty.
func Aggregate(stat Statistic, percentile float64, scores []float64) float64 {
	switch stat {
	case StatMean:
		return mean(scores)
	case StatMedian:
		return percentileOf(scores, 50)
	case StatHarmonic:
		return harmonicMean(scores)
	case StatRMS:
		return rms(scores)
	case StatPercentile:
		return percentileOf(scores, percentile)
	case StatStddev:
		return stddev(scores)
	case StatMode:
		return mode(scores)
	case StatMin:
		return minOf(scores)
	case StatMax:
		return maxOf(scores)
	default:
		return mean(scores)
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func harmonicMean(xs []float64) float64 {
	var sumInv float64
	for _, x := range xs {
		if x <= 0 {
			// A zero/negative sample degenerates the harmonic mean;
			// fall back to the arithmetic mean for this one sample.
			return mean(xs)
		}
		sumInv += 1 / x
	}
	return float64(len(xs)) / sumInv
}

func rms(xs []float64) float64 {
	var sumSq float64
	for _, x := range xs {
		sumSq += x * x
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func stddev(xs []float64) float64 {
	m := mean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func percentileOf(xs []float64, p float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mode(xs []float64) float64 {
	counts := make(map[float64]int, len(xs))
	for _, x := range xs {
		counts[rounded(x)]++
	}
	best, bestCount := xs[0], 0
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// rounded quantizes to two decimal places so near-identical float scores
// are treated as the same mode bucket.
func rounded(x float64) float64 {
	return math.Round(x*100) / 100
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
