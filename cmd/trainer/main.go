package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"frauddetect/internal/config"
	"frauddetect/internal/pipeline"
	"frauddetect/pkg/utils"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	dataPath := flag.String("data", "", "Input CSV, overrides data.path")
	out := flag.String("out", "", "Artifact path, overrides artifact.path")
	regen := flag.Bool("regen", false, "Generate a synthetic dataset at the data path first")
	n := flag.Int("n", 0, "Rows to generate with -regen, overrides data.rows")
	workers := flag.Int("workers", -1, "Worker goroutines for bake-off and grid search (0 = all cores)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		utils.Logger().Fatal("config", zap.Error(err))
	}
	if *dataPath != "" {
		cfg.Data.Path = *dataPath
	}
	if *out != "" {
		cfg.Artifact.Path = *out
	}
	if *regen {
		cfg.Data.Generate = true
	}
	if *n > 0 {
		cfg.Data.Rows = *n
	}
	if *workers >= 0 {
		cfg.Train.Workers = *workers
	}

	logger := utils.Configure(cfg.LogLevel, cfg.LogFile)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("training", zap.String("data", cfg.Data.Path), zap.String("artifact", cfg.Artifact.Path),
		zap.Int("grid", len(cfg.Train.Grid.Params())))
	res, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("training interrupted, no artifact written")
			os.Exit(130)
		}
		logger.Fatal("training failed", zap.Error(err))
	}

	logger.Info("model saved",
		zap.String("path", res.ArtifactPath),
		zap.Stringer("params", res.Search.Best),
		zap.Float64("cv_f1", res.Search.BestScore),
		zap.Float64("test_accuracy", res.Test.Accuracy),
		zap.Float64("test_precision", res.Test.Precision),
		zap.Float64("test_recall", res.Test.Recall),
		zap.Float64("test_f1", res.Test.F1),
		zap.Float64("test_roc_auc", res.Test.ROCAUC),
		zap.Float64("test_pr_auc", res.Test.PRAUC),
		zap.Any("confusion", res.Test.Confusion),
	)
}
