package resample

import (
	"fmt"
	"math"
	"sort"

	"frauddetect/internal/apperr"
)

// FROST generates minority samples by extrapolating along one feature.
// For each minority row p it takes the K rows most similar to p on Feature
// (similarity 1/(1+|v[p]-v[q]|), p itself included, ties by lower index) and
// emits, per neighbour q, a copy of row p whose Feature value is
// v[p] + M*(v[q]-v[p]). With M > 1 values can leave the observed range.
type FROST struct {
	Feature int
	K       int
	M       float64
}

// NewFROST returns FROST with k = 5 and m = 1.5 on the given feature.
func NewFROST(feature int) *FROST {
	return &FROST{Feature: feature, K: 5, M: 1.5}
}

func (f *FROST) Name() string { return "frost" }

// Neighbours returns, for every row, the K indices with the highest
// similarity on the chosen feature, most similar first. K is clamped to
// len(v).
func (f *FROST) Neighbours(v []float64) [][]int {
	n := len(v)
	k := max(0, min(f.K, n))
	out := make([][]int, n)
	sim := make([]float64, n)
	for p := 0; p < n; p++ {
		idx := make([]int, n)
		for q := 0; q < n; q++ {
			sim[q] = 1 / (1 + math.Abs(v[p]-v[q]))
			idx[q] = q
		}
		sort.SliceStable(idx, func(a, b int) bool { return sim[idx[a]] > sim[idx[b]] })
		out[p] = idx[:k:k]
	}
	return out
}

// Generate returns the K*n synthetic rows for the minority matrix M, grouped
// by source row in input order.
func (f *FROST) Generate(minority [][]float64) ([][]float64, error) {
	n := len(minority)
	if n == 0 {
		return nil, &apperr.DataQualityError{Reason: "frost: empty minority class"}
	}
	if f.K < 1 {
		return nil, &apperr.ConfigError{Param: "frost.k", Reason: "must be at least 1"}
	}
	if f.K > n {
		return nil, &apperr.DataQualityError{Reason: fmt.Sprintf("frost: k=%d exceeds %d minority rows", f.K, n)}
	}
	if f.Feature < 0 || f.Feature >= len(minority[0]) {
		return nil, &apperr.ConfigError{Param: "frost.feature", Reason: fmt.Sprintf("index %d out of range", f.Feature)}
	}

	v := make([]float64, n)
	for p := range minority {
		v[p] = minority[p][f.Feature]
	}
	out := make([][]float64, 0, n*f.K)
	for p, nbrs := range f.Neighbours(v) {
		for _, q := range nbrs {
			s := cloneRow(minority[p])
			s[f.Feature] = v[p] + f.M*(v[q]-v[p])
			out = append(out, s)
		}
	}
	return out, nil
}

// Resample appends the FROST rows for the minority of (X, y) to a copy of
// the original set. Every synthetic row is labelled 1.
func (f *FROST) Resample(X [][]float64, y []int) ([][]float64, []int, error) {
	if err := checkShape(X, y); err != nil {
		return nil, nil, err
	}
	minority, _ := Minority(X, y)
	synth, err := f.Generate(minority)
	if err != nil {
		return nil, nil, err
	}
	outX, outY := cloneAll(X, y, len(synth))
	for _, s := range synth {
		outX = append(outX, s)
		outY = append(outY, 1)
	}
	return outX, outY, nil
}
