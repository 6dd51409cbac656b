package eval

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"frauddetect/internal/models"
)

// CVResult holds one score per fold and their mean.
type CVResult struct {
	Scores []float64 `json:"scores"`
	Mean   float64   `json:"mean"`
}

// Workers returns n when positive, otherwise the number of usable cores.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// ForEach runs fn(i) for i in [0, n) on at most workers goroutines and stops
// at the first error or when ctx is cancelled. Callers write results into
// slot i, so the outcome does not depend on scheduling.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Workers(workers))
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// CrossValidate fits a fresh model per fold and scores it on the held-out rows.
func CrossValidate(ctx context.Context, factory models.Factory, X [][]float64, y []int, folds []Split, scorer Scorer, workers int) (CVResult, error) {
	scores := make([]float64, len(folds))
	err := ForEach(ctx, len(folds), workers, func(_ context.Context, f int) error {
		Xtr, ytr := Take(X, y, folds[f].Train)
		Xte, yte := Take(X, y, folds[f].Test)
		m := factory()
		if err := m.Fit(Xtr, ytr); err != nil {
			return err
		}
		scores[f] = scorer(yte, m.Predict(Xte))
		return nil
	})
	if err != nil {
		return CVResult{}, err
	}
	return CVResult{Scores: scores, Mean: stat.Mean(scores, nil)}, nil
}
