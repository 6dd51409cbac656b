package models

// Model is a binary classifier over dense float rows. PredictProba returns
// the probability of class 1 for every row.
type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) []float64
	Name() string
}

// Factory builds a fresh, unfitted model. Cross-validation and the bake-off
// call it once per fit so no state leaks between folds.
type Factory func() Model

// Family names used in bake-off reports.
const (
	NameDecisionTree       = "Decision Tree Classifier"
	NameRandomForest       = "Random Forest Classifier"
	NameSVM                = "Support Vector Machine (SVM)"
	NameKNN                = "K-Nearest Neighbors (KNN)"
	NameGradientBoosting   = "Gradient Boosting Classifier"
	NameLogisticRegression = "Logistic Regression"
)

// Families returns the bake-off line-up, each seeded with seed where the
// learner is stochastic.
func Families(seed int64) map[string]Factory {
	return map[string]Factory{
		NameDecisionTree:       func() Model { dt := NewDecisionTree(); dt.Seed = seed; return dt },
		NameRandomForest:       func() Model { rf := NewRandomForest(); rf.Seed = seed; return rf },
		NameSVM:                func() Model { s := NewSVM(); s.Seed = seed; return s },
		NameKNN:                func() Model { return NewKNN() },
		NameGradientBoosting:   func() Model { return NewGradientBoosting() },
		NameLogisticRegression: func() Model { return NewLogisticRegression() },
	}
}

func threshold(ps []float64) []int {
	out := make([]int, len(ps))
	for i := range ps {
		if ps[i] >= 0.5 {
			out[i] = 1
		}
	}
	return out
}

func checkFit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errEmpty
	}
	if len(X) != len(y) {
		return errShape
	}
	return nil
}
