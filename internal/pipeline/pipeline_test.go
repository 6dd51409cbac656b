package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frauddetect/internal/apperr"
	"frauddetect/internal/artifact"
	"frauddetect/internal/config"
	"frauddetect/internal/data"
	"frauddetect/internal/eval"
	"frauddetect/internal/features"
	"frauddetect/internal/inference"
	"frauddetect/internal/tuning"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Data.Path = filepath.Join(dir, "data", "transactions.csv")
	cfg.Data.Generate = true
	cfg.Data.Rows = 800
	cfg.Data.FraudRate = 0.1
	cfg.Artifact.Path = filepath.Join(dir, "models", "fraud_rf.bin")
	cfg.Artifact.ReportDir = filepath.Join(dir, "static")
	cfg.Train.Grid = tuning.Grid{NEstimators: []int{10}, MaxDepth: []int{3}, MinSamplesSplit: []int{2}, MinSamplesLeaf: []int{1}}
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := smallConfig(t)
	res, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 800, res.Rows)
	assert.Equal(t, res.Rows, res.TrainRows+res.TestRows)
	assert.Len(t, res.CV, 2)
	assert.Len(t, res.CV[StrategyFROST].Scores, 5)
	assert.Len(t, res.BakeOff[StrategySMOTE], 6)
	assert.Len(t, res.BakeOff[StrategyFROST], 6)
	assert.Equal(t, tuning.Params{NEstimators: 10, MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1}, res.Search.Best)

	a, err := artifact.Load(cfg.Artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, StrategyFROST, a.Strategy)
	assert.Equal(t, features.Columns(), a.FeatureColumns)
	assert.Equal(t, res.Search.Best, a.Params)
	assert.Equal(t, res.Test, a.TestMetrics)

	// Reloaded artifact reproduces the held-out predictions from raw records.
	txs, err := data.LoadCSV(cfg.Data.Path)
	require.NoError(t, err)
	pr, err := inference.New(a)
	require.NoError(t, err)
	X, err := pr.Preprocess(txs)
	require.NoError(t, err)
	live := res.Artifact.Forest.PredictProba(X)
	assert.Equal(t, live, pr.PredictProba(X))

	y := make([]int, len(txs))
	for i := range txs {
		y[i] = txs[i].FraudIndicator
	}
	sp := eval.StratifiedSplit(y, cfg.Train.TestSize, cfg.Train.Seed)
	Xte, yte := eval.Take(X, y, sp.Test)
	reloaded := eval.Score(yte, a.Forest.Predict(Xte), a.Forest.PredictProba(Xte))
	assert.Equal(t, res.Test, reloaded)

	for _, name := range []string{BakeOffCSV, CVPlot} {
		_, err := os.Stat(filepath.Join(cfg.Artifact.ReportDir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	a, err := Run(context.Background(), smallConfig(t), nil)
	require.NoError(t, err)
	b, err := Run(context.Background(), smallConfig(t), nil)
	require.NoError(t, err)
	assert.Equal(t, a.BakeOff, b.BakeOff)
	assert.Equal(t, a.Search.Best, b.Search.Best)
	assert.Equal(t, a.Test, b.Test)
}

func TestRunSchemaFailureWritesNothing(t *testing.T) {
	cfg := smallConfig(t)
	require.NoError(t, data.GenerateSyntheticTransactions(50, 0.1, 1, cfg.Data.Path))
	raw, err := os.ReadFile(cfg.Data.Path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	drop := -1
	for i, h := range strings.Split(lines[0], ",") {
		if h == data.ColAnomalyScore {
			drop = i
		}
	}
	require.NotEqual(t, -1, drop)
	for i, line := range lines {
		cells := strings.Split(line, ",")
		lines[i] = strings.Join(append(cells[:drop:drop], cells[drop+1:]...), ",")
	}
	require.NoError(t, os.WriteFile(cfg.Data.Path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	cfg.Data.Generate = false

	_, err = Run(context.Background(), cfg, nil)
	var se *apperr.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, data.ColAnomalyScore, se.Column)
	_, statErr := os.Stat(cfg.Artifact.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunCancelledWritesNothing(t *testing.T) {
	cfg := smallConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, nil)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(cfg.Artifact.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Train.Grid.NEstimators = nil
	_, err := Run(context.Background(), cfg, nil)
	var ce *apperr.ConfigError
	assert.True(t, errors.As(err, &ce))
}
