package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"frauddetect/internal/artifact"
	"frauddetect/internal/config"
	"frauddetect/internal/data"
	"frauddetect/internal/eval"
	"frauddetect/internal/features"
	"frauddetect/internal/models"
	"frauddetect/internal/report"
	"frauddetect/internal/resample"
	"frauddetect/internal/tuning"
)

// Strategy names as they appear in reports and the artifact.
const (
	StrategySMOTE = "smote"
	StrategyFROST = "frost"
)

// Report file names written under ArtifactConfig.ReportDir.
const (
	BakeOffCSV = "bakeoff.csv"
	CVPlot     = "cv_comparison.png"
)

// Result collects everything a training run measured.
type Result struct {
	Rows         int                      `json:"rows"`
	TrainRows    int                      `json:"train_rows"`
	TestRows     int                      `json:"test_rows"`
	CV           map[string]eval.CVResult `json:"cv"`
	BakeOff      eval.BakeOffResult       `json:"bake_off"`
	Search       *tuning.Result           `json:"search"`
	Test         eval.Metrics             `json:"test"`
	Artifact     *artifact.Artifact       `json:"-"`
	ArtifactPath string                   `json:"artifact_path"`
}

// Run executes load, feature building, split, scaling, resampling, the CV
// pass, the bake-off, the grid search and the final evaluation, then saves
// the artifact. ctx is checked between stages; any error or cancellation
// returns before the artifact is written.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tc := cfg.Train
	res := &Result{CV: map[string]eval.CVResult{}}

	stage := func(name string, fn func() error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := fn(); err != nil {
			log.Error("stage failed", zap.String("stage", name), zap.Error(err))
			return err
		}
		log.Info("stage done", zap.String("stage", name), zap.Duration("took", time.Since(start)))
		return nil
	}

	var txs []data.Transaction
	if err := stage("load", func() error {
		if cfg.Data.Generate {
			log.Info("generating synthetic dataset", zap.Int("n", cfg.Data.Rows), zap.String("out", cfg.Data.Path))
			if err := data.GenerateSyntheticTransactions(cfg.Data.Rows, cfg.Data.FraudRate, cfg.Data.Seed, cfg.Data.Path); err != nil {
				return fmt.Errorf("generate dataset: %w", err)
			}
		}
		var err error
		txs, err = data.LoadCSV(cfg.Data.Path)
		return err
	}); err != nil {
		return nil, err
	}
	res.Rows = len(txs)

	builder := features.NewBuilder(nil)
	var X [][]float64
	var y []int
	if err := stage("features", func() error {
		var err error
		X, y, err = builder.FitTransform(txs)
		if err != nil {
			return err
		}
		pos := 0
		for _, v := range y {
			pos += v
		}
		log.Info("class distribution", zap.Int("positive", pos), zap.Int("negative", len(y)-pos))
		return nil
	}); err != nil {
		return nil, err
	}

	var Xtrain, Xtest [][]float64
	var ytrain, ytest []int
	var scaler features.MinMaxScaler
	if err := stage("split+scale", func() error {
		sp := eval.StratifiedSplit(y, tc.TestSize, tc.Seed)
		Xtr, ytr := eval.Take(X, y, sp.Train)
		Xte, yte := eval.Take(X, y, sp.Test)
		var err error
		if Xtrain, err = scaler.FitTransform(Xtr, features.Columns()); err != nil {
			return err
		}
		Xtest, ytrain, ytest = scaler.Transform(Xte), ytr, yte
		return nil
	}); err != nil {
		return nil, err
	}
	res.TrainRows, res.TestRows = len(Xtrain), len(Xtest)

	frost := &resample.FROST{Feature: features.ColumnIndex(tc.FrostFeature), K: tc.FrostK, M: tc.FrostM}
	smote := &resample.SMOTE{K: tc.SMOTEK, Seed: tc.Seed}
	var sets []eval.Dataset
	if err := stage("resample", func() error {
		for _, r := range []resample.Resampler{smote, frost} {
			Xr, yr, err := r.Resample(Xtrain, ytrain)
			if err != nil {
				return fmt.Errorf("%s: %w", r.Name(), err)
			}
			log.Info("resampled", zap.String("strategy", r.Name()), zap.Int("rows", len(Xr)),
				zap.Float64("positive_ratio", resample.Ratio(yr)))
			sets = append(sets, eval.Dataset{Name: r.Name(), X: Xr, Y: yr})
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage("cv", func() error {
		factory := func() models.Model { dt := models.NewDecisionTree(); dt.Seed = tc.Seed; return dt }
		for _, ds := range sets {
			cv, err := eval.CrossValidate(ctx, factory, ds.X, ds.Y, eval.KFold(len(ds.X), tc.CVFolds), eval.AccuracyScore, tc.Workers)
			if err != nil {
				return err
			}
			res.CV[ds.Name] = cv
			log.Info("cross-validation", zap.String("strategy", ds.Name), zap.Float64s("scores", cv.Scores), zap.Float64("mean", cv.Mean))
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := stage("bake-off", func() error {
		var err error
		res.BakeOff, err = eval.BakeOff(ctx, sets, models.Families(tc.Seed), 0.2, tc.Seed, tc.Workers)
		if err != nil {
			return err
		}
		for _, ds := range sets {
			for _, name := range res.BakeOff.Ranking(ds.Name) {
				m := res.BakeOff[ds.Name][name]
				log.Info("bake-off", zap.String("strategy", ds.Name), zap.String("model", name),
					zap.Float64("accuracy", m.Accuracy), zap.Float64("precision", m.Precision),
					zap.Float64("recall", m.Recall), zap.Float64("f1", m.F1))
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	frostSet := sets[1]
	if err := stage("grid-search", func() error {
		var err error
		res.Search, err = tuning.Search(ctx, tc.Grid, frostSet.X, frostSet.Y, tuning.Options{
			Folds: tc.SearchFolds, Seed: tc.Seed, Workers: tc.Workers, Logger: log,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if err := stage("evaluate", func() error {
		rf := res.Search.Forest
		res.Test = eval.Score(ytest, rf.Predict(Xtest), rf.PredictProba(Xtest))
		log.Info("held-out test", zap.Stringer("params", res.Search.Best),
			zap.Float64("accuracy", res.Test.Accuracy), zap.Float64("f1", res.Test.F1),
			zap.Float64("roc_auc", res.Test.ROCAUC), zap.Float64("pr_auc", res.Test.PRAUC))
		return nil
	}); err != nil {
		return nil, err
	}

	res.Artifact = &artifact.Artifact{
		Version:        artifact.Version,
		Strategy:       StrategyFROST,
		FeatureColumns: features.Columns(),
		Categories:     append([]string(nil), builder.Encoder.Classes...),
		ScalerMin:      scaler.Min,
		ScalerMax:      scaler.Max,
		Params:         res.Search.Best,
		Forest:         res.Search.Forest,
		TestMetrics:    res.Test,
		CreatedAt:      time.Now().UTC(),
	}
	if err := stage("save", func() error {
		return artifact.Save(cfg.Artifact.Path, res.Artifact)
	}); err != nil {
		return nil, err
	}
	res.ArtifactPath = cfg.Artifact.Path

	if err := stage("report", func() error { return writeReports(cfg.Artifact.ReportDir, res) }); err != nil {
		log.Warn("report not written", zap.Error(err))
	}
	return res, nil
}

func writeReports(dir string, res *Result) error {
	if err := report.WriteBakeOffCSV(filepath.Join(dir, BakeOffCSV), res.BakeOff); err != nil {
		return err
	}
	return report.PlotCV(filepath.Join(dir, CVPlot), res.CV)
}
