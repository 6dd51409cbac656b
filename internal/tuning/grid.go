package tuning

import (
	"fmt"

	"go.uber.org/multierr"

	"frauddetect/internal/apperr"
	"frauddetect/internal/models"
)

// Grid lists candidate random-forest hyper-parameters. MaxDepth 0 means unbounded.
type Grid struct {
	NEstimators     []int `koanf:"n_estimators" json:"n_estimators"`
	MaxDepth        []int `koanf:"max_depth" json:"max_depth"`
	MinSamplesSplit []int `koanf:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  []int `koanf:"min_samples_leaf" json:"min_samples_leaf"`
}

// DefaultGrid is the 108-configuration search space.
func DefaultGrid() Grid {
	return Grid{
		NEstimators:     []int{50, 100, 150},
		MaxDepth:        []int{0, 10, 20, 30},
		MinSamplesSplit: []int{2, 5, 10},
		MinSamplesLeaf:  []int{1, 2, 4},
	}
}

// Params is one point of a Grid.
type Params struct {
	NEstimators     int `json:"n_estimators"`
	MaxDepth        int `json:"max_depth"`
	MinSamplesSplit int `json:"min_samples_split"`
	MinSamplesLeaf  int `json:"min_samples_leaf"`
}

func (p Params) String() string {
	depth := "None"
	if p.MaxDepth > 0 {
		depth = fmt.Sprint(p.MaxDepth)
	}
	return fmt.Sprintf("n_estimators=%d max_depth=%s min_samples_split=%d min_samples_leaf=%d",
		p.NEstimators, depth, p.MinSamplesSplit, p.MinSamplesLeaf)
}

// Forest returns an unfitted forest configured with p.
func (p Params) Forest(seed int64) *models.RandomForest {
	rf := models.NewRandomForest()
	rf.NEstimators = p.NEstimators
	rf.MaxDepth = p.MaxDepth
	rf.MinSamplesSplit = p.MinSamplesSplit
	rf.MinSamplesLeaf = p.MinSamplesLeaf
	rf.Seed = seed
	return rf
}

// Validate reports every empty or out-of-range list as a ConfigError.
func (g Grid) Validate() error {
	var err error
	check := func(name string, vals []int, lo int) {
		if len(vals) == 0 {
			err = multierr.Append(err, &apperr.ConfigError{Param: name, Reason: "no values"})
			return
		}
		for _, v := range vals {
			if v < lo {
				err = multierr.Append(err, &apperr.ConfigError{Param: name, Reason: fmt.Sprintf("value %d below %d", v, lo)})
				return
			}
		}
	}
	check("n_estimators", g.NEstimators, 1)
	check("max_depth", g.MaxDepth, 0)
	check("min_samples_split", g.MinSamplesSplit, 2)
	check("min_samples_leaf", g.MinSamplesLeaf, 1)
	return err
}

// Params enumerates the grid with parameter names in alphabetical order and
// the last one varying fastest, so index order is stable across runs.
func (g Grid) Params() []Params {
	out := make([]Params, 0, len(g.MaxDepth)*len(g.MinSamplesLeaf)*len(g.MinSamplesSplit)*len(g.NEstimators))
	for _, d := range g.MaxDepth {
		for _, leaf := range g.MinSamplesLeaf {
			for _, split := range g.MinSamplesSplit {
				for _, n := range g.NEstimators {
					out = append(out, Params{NEstimators: n, MaxDepth: d, MinSamplesSplit: split, MinSamplesLeaf: leaf})
				}
			}
		}
	}
	return out
}
