// Package stats provides the averaging helpers used by the report aggregators.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(toFloats(values), nil)
}

// WeightedMean returns the mean of values weighted by weights, or 0 when the
// weights sum to zero.
func WeightedMean(values, weights []int) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}
	w := toFloats(weights)
	if floats.Sum(w) == 0 {
		return 0
	}
	return stat.Mean(toFloats(values), w)
}

// Round rounds x to the nearest integer, ties to even.
func Round(x float64) int {
	return int(math.RoundToEven(x))
}

func toFloats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
