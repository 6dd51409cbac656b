package models

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearData labels a row 1 when x0 + x1 > 1.
func linearData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		if X[i][0]+X[i][1] > 1 {
			y[i] = 1
		}
	}
	return X, y
}

func accuracy(y, p []int) float64 {
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

func TestFamiliesLearnLinearBoundary(t *testing.T) {
	Xtr, ytr := linearData(600, 1)
	Xte, yte := linearData(200, 2)
	for name, factory := range Families(42) {
		t.Run(name, func(t *testing.T) {
			m := factory()
			require.NoError(t, m.Fit(Xtr, ytr))
			acc := accuracy(yte, m.Predict(Xte))
			assert.Greater(t, acc, 0.8, "%s accuracy %.3f", m.Name(), acc)

			ps := m.PredictProba(Xte)
			require.Len(t, ps, len(Xte))
			for _, p := range ps {
				assert.GreaterOrEqual(t, p, 0.0)
				assert.LessOrEqual(t, p, 1.0)
			}
		})
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	for name, factory := range Families(1) {
		assert.Error(t, factory().Fit(nil, nil), name)
		assert.Error(t, factory().Fit([][]float64{{1}}, []int{0, 1}), name)
	}
}

func TestDecisionTreeLimits(t *testing.T) {
	X, y := linearData(300, 3)

	dt := NewDecisionTree()
	dt.MaxDepth = 3
	require.NoError(t, dt.Fit(X, y))
	assert.LessOrEqual(t, dt.Depth(), 3)

	full := NewDecisionTree()
	require.NoError(t, full.Fit(X, y))
	assert.Equal(t, 1.0, accuracy(y, full.Predict(X)), "unbounded tree separates distinct training rows")

	leafy := NewDecisionTree()
	leafy.MinSamplesLeaf = 10
	require.NoError(t, leafy.Fit(X, y))
	var walk func(n *DTNode)
	walk = func(n *DTNode) {
		if n.IsLeaf {
			assert.GreaterOrEqual(t, n.Samples, 10)
			return
		}
		walk(n.Left)
		walk(n.Right)
	}
	walk(leafy.Root)
}

func TestDecisionTreePath(t *testing.T) {
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}
	dt := NewDecisionTree()
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, 0, dt.Root.Feature)
	assert.Equal(t, 1.5, dt.Root.Threshold)
	assert.Equal(t, 0.5, dt.Root.Proba)
	path := dt.Path([]float64{2.5})
	require.Len(t, path, 2)
	assert.Equal(t, 1.0, path[1].Proba)
}

func TestRandomForestIsReproducible(t *testing.T) {
	X, y := linearData(300, 4)
	fit := func(seed int64) []float64 {
		rf := NewRandomForest()
		rf.NEstimators = 15
		rf.Seed = seed
		require.NoError(t, rf.Fit(X, y))
		require.Len(t, rf.Trees, 15)
		return rf.PredictProba(X)
	}
	assert.Equal(t, fit(42), fit(42))
	assert.NotEqual(t, fit(42), fit(7))
}

func TestKNNVotes(t *testing.T) {
	k := &KNN{K: 3}
	require.NoError(t, k.Fit([][]float64{{0}, {0.1}, {0.2}, {5}, {5.1}}, []int{1, 1, 0, 0, 0}))
	ps := k.PredictProba([][]float64{{0.05}, {5.05}})
	assert.InDelta(t, 2.0/3.0, ps[0], 1e-12)
	assert.Equal(t, 0.0, ps[1])
}
