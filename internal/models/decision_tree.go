package models

import (
	"errors"
	"math"
	"math/rand"
	"sort"
)

var (
	errEmpty = errors.New("models: cannot fit on an empty matrix")
	errShape = errors.New("models: feature and label lengths differ")
)

// DTNode is one node of a fitted tree. Proba is the class-1 fraction of the
// training rows that reached the node and Samples their count; both are kept
// on internal nodes as well so attributions can walk the path.
type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Proba     float64
	Samples   int
}

// DecisionTree is a CART classifier with Gini impurity. MaxDepth 0 means
// unbounded. MaxFeatures 0 considers every feature at each split.
type DecisionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Seed            int64
	Root            *DTNode

	rng *rand.Rand
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MaxDepth: 0, MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

func (dt *DecisionTree) Name() string { return "DecisionTree" }

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}
	if dt.MinSamplesLeaf < 1 {
		dt.MinSamplesLeaf = 1
	}
	dt.rng = rand.New(rand.NewSource(dt.Seed))
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	dt.Root = dt.build(X, y, idx, 0)
	return nil
}

func (dt *DecisionTree) Predict(X [][]float64) []int {
	return threshold(dt.PredictProba(X))
}

func (dt *DecisionTree) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i := range X {
		out[i] = dt.predictProbaOne(X[i])
	}
	return out
}

func (dt *DecisionTree) predictProbaOne(x []float64) float64 {
	n := dt.Root
	if n == nil {
		return 0.5
	}
	for !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Proba
}

// Path returns the nodes visited by x from the root to its leaf.
func (dt *DecisionTree) Path(x []float64) []*DTNode {
	var path []*DTNode
	for n := dt.Root; n != nil; {
		path = append(path, n)
		if n.IsLeaf {
			break
		}
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return path
}

// Depth is the length of the longest root-to-leaf path.
func (dt *DecisionTree) Depth() int { return depth(dt.Root) }

func depth(n *DTNode) int {
	if n == nil || n.IsLeaf {
		return 0
	}
	return 1 + max(depth(n.Left), depth(n.Right))
}

func (dt *DecisionTree) build(X [][]float64, y []int, idx []int, d int) *DTNode {
	p := classProba(y, idx)
	node := &DTNode{Proba: p, Samples: len(idx)}
	if len(idx) < dt.MinSamplesSplit || (dt.MaxDepth > 0 && d >= dt.MaxDepth) || p == 0 || p == 1 {
		node.IsLeaf = true
		return node
	}

	bestFeature := -1
	bestThr := 0.0
	bestImp := math.MaxFloat64
	for _, f := range pickFeatures(dt.rng, len(X[0]), dt.MaxFeatures) {
		thr, imp, ok := bestSplit(X, y, idx, f, dt.MinSamplesLeaf)
		if ok && imp < bestImp {
			bestImp = imp
			bestFeature = f
			bestThr = thr
		}
	}
	if bestFeature == -1 {
		node.IsLeaf = true
		return node
	}
	lIdx, rIdx := splitIdx(X, idx, bestFeature, bestThr)
	node.Feature = bestFeature
	node.Threshold = bestThr
	node.Left = dt.build(X, y, lIdx, d+1)
	node.Right = dt.build(X, y, rIdx, d+1)
	return node
}

func classProba(y []int, idx []int) float64 {
	sum := 0
	for _, i := range idx {
		sum += y[i]
	}
	return float64(sum) / float64(len(idx))
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}

// bestSplit sweeps the sorted values of feature f once and returns the
// midpoint threshold with the lowest weighted Gini impurity that leaves at
// least minLeaf rows on each side.
func bestSplit(X [][]float64, y []int, idx []int, f int, minLeaf int) (float64, float64, bool) {
	order := append([]int(nil), idx...)
	sort.SliceStable(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

	n := len(order)
	totalPos := 0
	for _, i := range order {
		totalPos += y[i]
	}
	leftPos := 0
	bestImp := math.MaxFloat64
	bestThr := 0.0
	found := false
	for k := 1; k < n; k++ {
		leftPos += y[order[k-1]]
		lo, hi := X[order[k-1]][f], X[order[k]][f]
		if lo == hi || k < minLeaf || n-k < minLeaf {
			continue
		}
		imp := giniImpurity(leftPos, k, totalPos-leftPos, n-k)
		if imp < bestImp {
			bestImp = imp
			bestThr = lo + (hi-lo)/2
			if bestThr >= hi {
				bestThr = lo
			}
			found = true
		}
	}
	return bestThr, bestImp, found
}

func giniImpurity(lPos, lN, rPos, rN int) float64 {
	g := func(pos, n int) float64 {
		if n == 0 {
			return 0
		}
		p := float64(pos) / float64(n)
		return p * (1 - p)
	}
	wl := float64(lN)
	wr := float64(rN)
	total := wl + wr
	return (wl/total)*g(lPos, lN) + (wr/total)*g(rPos, rN)
}

func pickFeatures(rng *rand.Rand, nFeats int, maxFeats int) []int {
	if maxFeats <= 0 || maxFeats >= nFeats {
		out := make([]int, nFeats)
		for i := 0; i < nFeats; i++ {
			out[i] = i
		}
		return out
	}
	perm := rng.Perm(nFeats)
	out := make([]int, maxFeats)
	copy(out, perm[:maxFeats])
	sort.Ints(out)
	return out
}
