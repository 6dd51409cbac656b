package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"go.uber.org/multierr"

	"frauddetect/internal/apperr"
	"frauddetect/internal/features"
	"frauddetect/internal/tuning"
)

// EnvPrefix marks environment overrides. Nested keys are joined with a double
// underscore: FRAUD_TRAIN__TEST_SIZE sets train.test_size.
const EnvPrefix = "FRAUD_"

type Config struct {
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	LogFile  string `koanf:"log_file"`

	Data     DataConfig     `koanf:"data"`
	Train    TrainConfig    `koanf:"train"`
	Artifact ArtifactConfig `koanf:"artifact"`
	Server   ServerConfig   `koanf:"server"`
}

type DataConfig struct {
	Path      string  `koanf:"path" validate:"required"`
	Generate  bool    `koanf:"generate"`
	Rows      int     `koanf:"rows" validate:"gte=0"`
	FraudRate float64 `koanf:"fraud_rate" validate:"gte=0,lte=1"`
	Seed      int64   `koanf:"seed"`
}

type TrainConfig struct {
	TestSize     float64     `koanf:"test_size" validate:"gt=0,lt=1"`
	Seed         int64       `koanf:"seed"`
	Workers      int         `koanf:"workers" validate:"gte=0"`
	CVFolds      int         `koanf:"cv_folds" validate:"gte=2"`
	SearchFolds  int         `koanf:"search_folds" validate:"gte=2"`
	SMOTEK       int         `koanf:"smote_k" validate:"gte=1"`
	FrostFeature string      `koanf:"frost_feature" validate:"required"`
	FrostK       int         `koanf:"frost_k" validate:"gte=1"`
	FrostM       float64     `koanf:"frost_m" validate:"gt=0"`
	Grid         tuning.Grid `koanf:"grid"`
}

type ArtifactConfig struct {
	Path      string `koanf:"path" validate:"required"`
	ReportDir string `koanf:"report_dir" validate:"required"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	StaticDir       string        `koanf:"static_dir"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	MaxBatch        int           `koanf:"max_batch" validate:"gte=1"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			Path:      "data/transactions.csv",
			Rows:      5000,
			FraudRate: 0.05,
			Seed:      42,
		},
		Train: TrainConfig{
			TestSize:     0.2,
			Seed:         42,
			CVFolds:      5,
			SearchFolds:  5,
			SMOTEK:       5,
			FrostFeature: features.Columns()[0],
			FrostK:       5,
			FrostM:       1.5,
			Grid:         tuning.DefaultGrid(),
		},
		Artifact: ArtifactConfig{
			Path:      "models/fraud_rf.bin",
			ReportDir: "cmd/api/static",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "cmd/api/static",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBatch:        1000,
		},
	}
}

// Load layers defaults, the optional YAML file at path and FRAUD_ environment
// variables, then validates the result. A missing file is only an error when
// path was given explicitly.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints, the search grid and the FROST feature
// name, reporting every problem as a ConfigError.
func (c *Config) Validate() error {
	var errs error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = multierr.Append(errs, &apperr.ConfigError{
				Param:  fe.Namespace(),
				Reason: fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()),
			})
		}
	}
	if err := c.Train.Grid.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if features.ColumnIndex(c.Train.FrostFeature) < 0 {
		errs = multierr.Append(errs, &apperr.ConfigError{
			Param:  "train.frost_feature",
			Reason: fmt.Sprintf("unknown feature %q", c.Train.FrostFeature),
		})
	}
	return errs
}
