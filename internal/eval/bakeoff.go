package eval

import (
	"context"
	"fmt"
	"sort"

	"frauddetect/internal/models"
)

// Dataset is a named, resampled training set.
type Dataset struct {
	Name string
	X    [][]float64
	Y    []int
}

// BakeOffResult is strategy -> model family -> held-out metrics.
type BakeOffResult map[string]map[string]Metrics

// BakeOff splits every dataset with ShuffleSplit(testSize, seed), fits each
// family on the training part and scores it on the rest. Jobs run on the
// worker pool; each writes its own slot.
func BakeOff(ctx context.Context, sets []Dataset, families map[string]models.Factory, testSize float64, seed int64, workers int) (BakeOffResult, error) {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	type job struct {
		set, family int
	}
	splits := make([]Split, len(sets))
	for s := range sets {
		splits[s] = ShuffleSplit(len(sets[s].X), testSize, seed)
	}
	var jobs []job
	for s := range sets {
		for f := range names {
			jobs = append(jobs, job{s, f})
		}
	}

	out := make([]Metrics, len(jobs))
	err := ForEach(ctx, len(jobs), workers, func(_ context.Context, i int) error {
		j := jobs[i]
		ds := sets[j.set]
		Xtr, ytr := Take(ds.X, ds.Y, splits[j.set].Train)
		Xte, yte := Take(ds.X, ds.Y, splits[j.set].Test)
		m := families[names[j.family]]()
		if err := m.Fit(Xtr, ytr); err != nil {
			return fmt.Errorf("bake-off %s/%s: %w", ds.Name, names[j.family], err)
		}
		out[i] = Score(yte, m.Predict(Xte), m.PredictProba(Xte))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := BakeOffResult{}
	for i, j := range jobs {
		set := sets[j.set].Name
		if res[set] == nil {
			res[set] = map[string]Metrics{}
		}
		res[set][names[j.family]] = out[i]
	}
	return res, nil
}

// Ranking lists the families of one strategy by descending F1, ties by name.
func (r BakeOffResult) Ranking(strategy string) []string {
	byModel := r[strategy]
	names := make([]string, 0, len(byModel))
	for name := range byModel {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		fa, fb := byModel[names[a]].F1, byModel[names[b]].F1
		if fa != fb {
			return fa > fb
		}
		return names[a] < names[b]
	})
	return names
}
