package eval

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frauddetect/internal/models"
	"frauddetect/internal/resample"
)

func TestScore(t *testing.T) {
	y := []int{1, 1, 1, 0, 0, 0, 0, 0}
	pred := []int{1, 1, 0, 1, 0, 0, 0, 0}
	ps := []float64{0.9, 0.8, 0.3, 0.7, 0.2, 0.1, 0.1, 0.05}

	m := Score(y, pred, ps)
	assert.Equal(t, [2][2]int{{4, 1}, {1, 2}}, m.Confusion)
	assert.InDelta(t, 6.0/8.0, m.Accuracy, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-12)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-12)
	assert.InDelta(t, 14.0/15.0, m.ROCAUC, 1e-12)
	assert.Greater(t, m.PRAUC, 0.0)

	assert.Equal(t, 0.0, F1Score([]int{0, 0}, []int{0, 0}))
	assert.Equal(t, 1.0, AccuracyScore([]int{0, 1}, []int{0, 1}))
}

func TestShuffleSplit(t *testing.T) {
	s := ShuffleSplit(101, 0.2, 42)
	assert.Len(t, s.Test, 21)
	assert.Len(t, s.Train, 80)
	all := append(append([]int(nil), s.Train...), s.Test...)
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i, v)
	}
	assert.Equal(t, s, ShuffleSplit(101, 0.2, 42))
}

func TestStratifiedSplitKeepsBothClasses(t *testing.T) {
	y := make([]int, 100)
	for i := 0; i < 10; i++ {
		y[i*10] = 1
	}
	s := StratifiedSplit(y, 0.2, 42)
	count := func(idx []int) int {
		c := 0
		for _, i := range idx {
			c += y[i]
		}
		return c
	}
	assert.Len(t, s.Test, 20)
	assert.Equal(t, 2, count(s.Test))
	assert.Equal(t, 8, count(s.Train))
}

func TestKFold(t *testing.T) {
	folds := KFold(11, 5)
	require.Len(t, folds, 5)
	assert.Equal(t, []int{0, 1, 2}, folds[0].Test)
	assert.Equal(t, []int{9, 10}, folds[4].Test)
	for _, f := range folds {
		assert.Equal(t, 11, len(f.Train)+len(f.Test))
	}
}

func TestStratifiedKFold(t *testing.T) {
	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1}
	for _, f := range StratifiedKFold(y, 5) {
		pos := 0
		for _, i := range f.Test {
			pos += y[i]
		}
		assert.Len(t, f.Test, 3)
		assert.Equal(t, 1, pos)
	}
}

func TestCrossValidateIsDeterministic(t *testing.T) {
	X, y := separable(300, 0)
	factory := func() models.Model { dt := models.NewDecisionTree(); dt.Seed = 42; return dt }
	a, err := CrossValidate(context.Background(), factory, X, y, KFold(len(X), 5), AccuracyScore, 4)
	require.NoError(t, err)
	b, err := CrossValidate(context.Background(), factory, X, y, KFold(len(X), 5), AccuracyScore, 1)
	require.NoError(t, err)
	require.Len(t, a.Scores, 5)
	assert.Equal(t, a, b)
	assert.Greater(t, a.Mean, 0.8)
}

func TestForEachStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := 0
	err := ForEach(ctx, 10, 1, func(context.Context, int) error { ran++; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ran)
}

// separable draws rows in [0,1]^4 with label 1 when x0 + x1 > 1.6 (about 8%).
func separable(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := range X {
		X[i] = []float64{rng.Float64(), rng.Float64(), rng.Float64(), rng.Float64()}
		if X[i][0]+X[i][1] > 1.6 {
			y[i] = 1
		}
	}
	return X, y
}

func TestBakeOffRandomForestUnderBothStrategies(t *testing.T) {
	X, y := separable(500, 11)
	smoteX, smoteY, err := resample.NewSMOTE(42).Resample(X, y)
	require.NoError(t, err)
	frostX, frostY, err := resample.NewFROST(0).Resample(X, y)
	require.NoError(t, err)

	sets := []Dataset{{Name: "smote", X: smoteX, Y: smoteY}, {Name: "frost", X: frostX, Y: frostY}}
	res, err := BakeOff(context.Background(), sets, models.Families(42), 0.2, 42, 0)
	require.NoError(t, err)

	for _, strategy := range []string{"smote", "frost"} {
		require.Len(t, res[strategy], 6)
		rf := res[strategy][models.NameRandomForest]
		assert.GreaterOrEqual(t, rf.F1, 0.8, "%s random forest F1", strategy)
		r := res.Ranking(strategy)
		require.Len(t, r, 6)
		assert.Equal(t, models.NameLogisticRegression, r[len(r)-1], "%s lowest F1", strategy)
	}

	again, err := BakeOff(context.Background(), sets, models.Families(42), 0.2, 42, 1)
	require.NoError(t, err)
	assert.Equal(t, res, again)
}
