package resample

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"frauddetect/internal/apperr"
)

// SMOTE oversamples the minority class up to the majority count by
// interpolating between a random minority row and one of its K nearest
// minority neighbours (Euclidean).
type SMOTE struct {
	K    int
	Seed int64
}

// NewSMOTE returns SMOTE with k = 5.
func NewSMOTE(seed int64) *SMOTE { return &SMOTE{K: 5, Seed: seed} }

func (s *SMOTE) Name() string { return "smote" }

// nearest returns the k nearest rows to each row of M, self excluded.
func nearest(M [][]float64, k int) [][]int {
	n := len(M)
	out := make([][]int, n)
	dist := make([]float64, n)
	for p := 0; p < n; p++ {
		idx := make([]int, 0, n-1)
		for q := 0; q < n; q++ {
			dist[q] = floats.Distance(M[p], M[q], 2)
			if q != p {
				idx = append(idx, q)
			}
		}
		sort.SliceStable(idx, func(a, b int) bool { return dist[idx[a]] < dist[idx[b]] })
		out[p] = idx[:k:k]
	}
	return out
}

func (s *SMOTE) Resample(X [][]float64, y []int) ([][]float64, []int, error) {
	if err := checkShape(X, y); err != nil {
		return nil, nil, err
	}
	minority, nMaj := Minority(X, y)
	nMin := len(minority)
	if nMin == 0 {
		return nil, nil, &apperr.DataQualityError{Reason: "smote: empty minority class"}
	}
	if s.K < 1 {
		return nil, nil, &apperr.ConfigError{Param: "smote.k", Reason: "must be at least 1"}
	}
	if nMin < 2 {
		return nil, nil, &apperr.DataQualityError{Reason: "smote: need at least 2 minority rows"}
	}
	need := nMaj - nMin
	outX, outY := cloneAll(X, y, max(need, 0))
	if need <= 0 {
		return outX, outY, nil
	}

	k := s.K
	if k > nMin-1 {
		k = nMin - 1
	}
	nbrs := nearest(minority, k)
	rng := rand.New(rand.NewSource(s.Seed))
	d := len(minority[0])
	for i := 0; i < need; i++ {
		p := rng.Intn(nMin)
		q := nbrs[p][rng.Intn(k)]
		gap := rng.Float64()
		row := make([]float64, d)
		for j := 0; j < d; j++ {
			row[j] = minority[p][j] + gap*(minority[q][j]-minority[p][j])
		}
		outX = append(outX, row)
		outY = append(outY, 1)
	}
	return outX, outY, nil
}
