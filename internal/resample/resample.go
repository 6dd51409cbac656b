// Package resample rebalances a training matrix toward the minority class.
// All strategies work on min-max scaled features and never modify their input.
package resample

import (
	"math"

	"frauddetect/internal/apperr"
)

// Resampler returns a new, owned training set.
type Resampler interface {
	Resample(X [][]float64, y []int) ([][]float64, []int, error)
	Name() string
}

// Minority returns copies of the rows labelled 1 and the count of rows labelled 0.
func Minority(X [][]float64, y []int) ([][]float64, int) {
	rows := make([][]float64, 0)
	maj := 0
	for i := range X {
		if y[i] == 1 {
			rows = append(rows, cloneRow(X[i]))
		} else {
			maj++
		}
	}
	return rows, maj
}

// Ratio is n(1) / n(0); it is +Inf when there are no negatives.
func Ratio(y []int) float64 {
	pos, neg := 0, 0
	for _, v := range y {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if neg == 0 {
		return math.Inf(1)
	}
	return float64(pos) / float64(neg)
}

func cloneRow(r []float64) []float64 { return append([]float64(nil), r...) }

func cloneAll(X [][]float64, y []int, extra int) ([][]float64, []int) {
	outX := make([][]float64, len(X), len(X)+extra)
	outY := make([]int, len(y), len(y)+extra)
	for i := range X {
		outX[i] = cloneRow(X[i])
	}
	copy(outY, y)
	return outX, outY
}

func checkShape(X [][]float64, y []int) error {
	if len(X) != len(y) {
		return &apperr.DataQualityError{Reason: "feature and label lengths differ"}
	}
	if len(X) == 0 {
		return &apperr.DataQualityError{Reason: "empty training set"}
	}
	return nil
}
