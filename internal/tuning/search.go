package tuning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"frauddetect/internal/eval"
	"frauddetect/internal/models"
)

// Options control a grid search. Zero values pick 5 folds and one worker per core.
type Options struct {
	Folds   int
	Seed    int64
	Workers int
	Logger  *zap.Logger
}

// Candidate is one scored configuration.
type Candidate struct {
	Params Params        `json:"params"`
	CV     eval.CVResult `json:"cv"`
}

// Result is the outcome of Search. Forest is the best configuration refit
// on every row passed to Search.
type Result struct {
	Best       Params               `json:"best"`
	BestScore  float64              `json:"best_score"`
	Candidates []Candidate          `json:"candidates"`
	Forest     *models.RandomForest `json:"-"`
}

// Search scores every configuration in g with stratified k-fold F1, keeps the
// highest mean (the earliest configuration wins ties) and refits it on X, y.
func Search(ctx context.Context, g Grid, X [][]float64, y []int, opts Options) (*Result, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if opts.Folds <= 0 {
		opts.Folds = 5
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	params := g.Params()
	folds := eval.StratifiedKFold(y, opts.Folds)
	results := make([]eval.CVResult, len(params))

	err := eval.ForEach(ctx, len(params), opts.Workers, func(ctx context.Context, i int) error {
		p := params[i]
		factory := func() models.Model { return p.Forest(opts.Seed) }
		// Folds run sequentially inside a job; the pool is already saturated by configurations.
		cv, err := eval.CrossValidate(ctx, factory, X, y, folds, eval.F1Score, 1)
		if err != nil {
			return fmt.Errorf("grid search %s: %w", p, err)
		}
		results[i] = cv
		log.Debug("grid candidate", zap.Int("index", i), zap.Stringer("params", p), zap.Float64("f1", cv.Mean))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Candidates: make([]Candidate, len(params))}
	best := -1
	for i, p := range params {
		res.Candidates[i] = Candidate{Params: p, CV: results[i]}
		if best < 0 || results[i].Mean > results[best].Mean {
			best = i
		}
	}
	res.Best = params[best]
	res.BestScore = results[best].Mean
	log.Info("grid search done", zap.Int("candidates", len(params)), zap.Stringer("best", res.Best), zap.Float64("f1", res.BestScore))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Forest = res.Best.Forest(opts.Seed)
	if err := res.Forest.Fit(X, y); err != nil {
		return nil, fmt.Errorf("refit %s: %w", res.Best, err)
	}
	return res, nil
}
