package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"frauddetect/internal/apperr"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "Amount", cfg.Train.FrostFeature)
	assert.Equal(t, []int{50, 100, 150}, cfg.Train.Grid.NEstimators)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
log_level: debug
data:
  path: /tmp/tx.csv
train:
  frost_k: 3
  grid:
    n_estimators: [10]
    max_depth: [3]
    min_samples_split: [2]
    min_samples_leaf: [1]
server:
  read_timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("FRAUD_TRAIN__TEST_SIZE", "0.25")
	t.Setenv("FRAUD_SERVER__ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/tx.csv", cfg.Data.Path)
	assert.Equal(t, 3, cfg.Train.FrostK)
	assert.Equal(t, []int{10}, cfg.Train.Grid.NEstimators)
	assert.Equal(t, 0.25, cfg.Train.TestSize)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 1.5, cfg.Train.FrostM)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Train.TestSize = 1.5
	cfg.Train.FrostFeature = "Nope"
	cfg.Train.Grid.MinSamplesLeaf = nil

	err := cfg.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 4)
	for _, e := range errs {
		var ce *apperr.ConfigError
		assert.True(t, errors.As(e, &ce), "%v", e)
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "train.frost_feature", envKey("FRAUD_TRAIN__FROST_FEATURE"))
	assert.Equal(t, "log_level", envKey("FRAUD_LOG_LEVEL"))
}
