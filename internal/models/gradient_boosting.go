package models

import (
	"math"
	"sort"
)

type gbStump struct {
	Feature   int
	Threshold float64
	LeftVal   float64
	RightVal  float64
}

// GradientBoosting fits log-loss boosted stumps. Init is the log-odds of
// the training prior and is the starting score at prediction time too.
// Leaf values are one Newton step on the residuals.
type GradientBoosting struct {
	NEstimators        int
	LearningRate       float64
	MinSamples         int
	MaxThresholdsPerFe int
	Init               float64
	Trees              []gbStump
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{NEstimators: 100, LearningRate: 0.1, MinSamples: 1, MaxThresholdsPerFe: 32}
}

func (gb *GradientBoosting) Name() string { return "GradientBoosting" }

func sigmoid(z float64) float64 { return 1.0 / (1.0 + math.Exp(-z)) }

func (gb *GradientBoosting) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	n := len(X)
	nFeats := len(X[0])
	gb.Trees = nil
	pos := 0
	for i := 0; i < n; i++ {
		pos += y[i]
	}
	base := float64(pos) / float64(n)
	base = math.Min(math.Max(base, 1e-3), 1-1e-3)
	gb.Init = math.Log(base / (1.0 - base))

	cands := make([][]float64, nFeats)
	for j := 0; j < nFeats; j++ {
		cands[j] = gbCandidateThresholds(X, j, gb.MaxThresholdsPerFe)
	}

	F := make([]float64, n)
	for i := range F {
		F[i] = gb.Init
	}
	r := make([]float64, n)
	h := make([]float64, n)
	for m := 0; m < gb.NEstimators; m++ {
		for i := 0; i < n; i++ {
			p := sigmoid(F[i])
			r[i] = float64(y[i]) - p
			h[i] = p * (1 - p)
		}

		best := gbStump{Feature: -1}
		bestSSE := math.MaxFloat64
		for j := 0; j < nFeats; j++ {
			for _, thr := range cands[j] {
				var lSum, lSq, lCnt, rSum, rSq, rCnt float64
				for i := 0; i < n; i++ {
					if X[i][j] <= thr {
						lSum += r[i]
						lSq += r[i] * r[i]
						lCnt++
					} else {
						rSum += r[i]
						rSq += r[i] * r[i]
						rCnt++
					}
				}
				if lCnt == 0 || rCnt == 0 || int(lCnt) < gb.MinSamples || int(rCnt) < gb.MinSamples {
					continue
				}
				sse := (lSq - lSum*lSum/lCnt) + (rSq - rSum*rSum/rCnt)
				if sse < bestSSE {
					bestSSE = sse
					best = gbStump{Feature: j, Threshold: thr}
				}
			}
		}
		if best.Feature == -1 {
			break
		}
		var lNum, lDen, rNum, rDen float64
		for i := 0; i < n; i++ {
			if X[i][best.Feature] <= best.Threshold {
				lNum += r[i]
				lDen += h[i]
			} else {
				rNum += r[i]
				rDen += h[i]
			}
		}
		best.LeftVal = newtonStep(lNum, lDen)
		best.RightVal = newtonStep(rNum, rDen)
		gb.Trees = append(gb.Trees, best)
		for i := 0; i < n; i++ {
			F[i] += gb.LearningRate * best.value(X[i])
		}
	}
	return nil
}

func newtonStep(num, den float64) float64 {
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func (s gbStump) value(x []float64) float64 {
	if x[s.Feature] <= s.Threshold {
		return s.LeftVal
	}
	return s.RightVal
}

func (gb *GradientBoosting) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		f := gb.Init
		for _, t := range gb.Trees {
			f += gb.LearningRate * t.value(X[i])
		}
		out[i] = sigmoid(f)
	}
	return out
}

func (gb *GradientBoosting) Predict(X [][]float64) []int {
	return threshold(gb.PredictProba(X))
}

func gbCandidateThresholds(X [][]float64, j int, nCand int) []float64 {
	if nCand <= 0 {
		nCand = 16
	}
	n := len(X)
	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = X[i][j]
	}
	sort.Float64s(vals)
	out := make([]float64, 0, nCand)
	for k := 1; k < nCand; k++ {
		idx := int(math.Round(float64(k) / float64(nCand) * float64(n-1)))
		if idx <= 0 || idx >= n {
			continue
		}
		thr := vals[idx]
		if len(out) == 0 || thr != out[len(out)-1] {
			out = append(out, thr)
		}
	}
	if len(out) == 0 {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[i]
		}
		out = append(out, sum/float64(n))
	}
	return out
}
