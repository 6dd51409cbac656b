package models

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is L2-regularized logistic regression fit by batch
// gradient descent. C is the inverse regularization strength.
type LogisticRegression struct {
	C            float64
	LearningRate float64
	MaxIter      int
	Weights      []float64
	Bias         float64
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1.0, LearningRate: 0.5, MaxIter: 300}
}

func (lr *LogisticRegression) Name() string { return "LogisticRegression" }

func (lr *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	n := float64(len(X))
	d := len(X[0])
	lr.Weights = make([]float64, d)
	lr.Bias = 0
	grad := make([]float64, d)
	for it := 0; it < lr.MaxIter; it++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, x := range X {
			e := sigmoid(floats.Dot(lr.Weights, x)+lr.Bias) - float64(y[i])
			floats.AddScaled(grad, e, x)
			gb += e
		}
		floats.Scale(1/n, grad)
		floats.AddScaled(grad, 1/(lr.C*n), lr.Weights)
		floats.AddScaled(lr.Weights, -lr.LearningRate, grad)
		lr.Bias -= lr.LearningRate * gb / n
	}
	return nil
}

func (lr *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = sigmoid(floats.Dot(lr.Weights, x) + lr.Bias)
	}
	return out
}

func (lr *LogisticRegression) Predict(X [][]float64) []int {
	return threshold(lr.PredictProba(X))
}

// SVM is a linear soft-margin classifier trained with Pegasos (stochastic
// sub-gradient on the hinge loss). PredictProba squashes the margin with a
// logistic so it can share the ranking metrics.
type SVM struct {
	Lambda  float64
	Epochs  int
	Seed    int64
	Weights []float64
	Bias    float64
}

func NewSVM() *SVM { return &SVM{Lambda: 1e-3, Epochs: 20} }

func (s *SVM) Name() string { return "SVM" }

func (s *SVM) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	n := len(X)
	s.Weights = make([]float64, len(X[0]))
	s.Bias = 0
	rng := rand.New(rand.NewSource(s.Seed))
	t := 0
	for ep := 0; ep < s.Epochs; ep++ {
		for _, i := range rng.Perm(n) {
			t++
			eta := 1 / (s.Lambda * float64(t+100))
			yi := -1.0
			if y[i] == 1 {
				yi = 1
			}
			margin := yi * (floats.Dot(s.Weights, X[i]) + s.Bias)
			floats.Scale(1-eta*s.Lambda, s.Weights)
			if margin < 1 {
				floats.AddScaled(s.Weights, eta*yi, X[i])
				s.Bias += eta * yi
			}
		}
	}
	return nil
}

func (s *SVM) decision(x []float64) float64 { return floats.Dot(s.Weights, x) + s.Bias }

func (s *SVM) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = sigmoid(2 * s.decision(x))
	}
	return out
}

func (s *SVM) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		if s.decision(x) >= 0 {
			out[i] = 1
		}
	}
	return out
}

// KNN votes among the K nearest training rows by Euclidean distance.
type KNN struct {
	K int
	X [][]float64
	Y []int
}

func NewKNN() *KNN { return &KNN{K: 5} }

func (k *KNN) Name() string { return "KNN" }

func (k *KNN) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	k.X = X
	k.Y = y
	return nil
}

func (k *KNN) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	kk := min(k.K, len(k.X))
	if kk == 0 {
		return out
	}
	bestD := make([]float64, kk)
	bestY := make([]int, kk)
	for i, x := range X {
		for j := range bestD {
			bestD[j] = math.Inf(1)
			bestY[j] = 0
		}
		for r, row := range k.X {
			d := floats.Distance(x, row, 2)
			if d >= bestD[kk-1] {
				continue
			}
			pos := kk - 1
			for pos > 0 && bestD[pos-1] > d {
				bestD[pos] = bestD[pos-1]
				bestY[pos] = bestY[pos-1]
				pos--
			}
			bestD[pos] = d
			bestY[pos] = k.Y[r]
		}
		votes := 0
		for _, v := range bestY {
			votes += v
		}
		out[i] = float64(votes) / float64(kk)
	}
	return out
}

func (k *KNN) Predict(X [][]float64) []int {
	return threshold(k.PredictProba(X))
}
