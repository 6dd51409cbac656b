package eval

import (
	"math"
	"math/rand"
)

// Split holds row indices into a matrix.
type Split struct {
	Train []int
	Test  []int
}

// ShuffleSplit permutes 0..n-1 with seed and holds out ceil(testSize*n) rows.
func ShuffleSplit(n int, testSize float64, seed int64) Split {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)
	nTest := testCount(n, testSize)
	return Split{Train: perm[nTest:], Test: perm[:nTest]}
}

// StratifiedSplit holds out testSize of each class separately so both sides
// keep the class ratio.
func StratifiedSplit(y []int, testSize float64, seed int64) Split {
	rng := rand.New(rand.NewSource(seed))
	var posIdx, negIdx []int
	for i := range y {
		if y[i] == 1 {
			posIdx = append(posIdx, i)
		} else {
			negIdx = append(negIdx, i)
		}
	}
	var s Split
	for _, class := range [][]int{negIdx, posIdx} {
		perm := rng.Perm(len(class))
		nTest := testCount(len(class), testSize)
		for k, p := range perm {
			if k < nTest {
				s.Test = append(s.Test, class[p])
			} else {
				s.Train = append(s.Train, class[p])
			}
		}
	}
	rng.Shuffle(len(s.Train), func(i, j int) { s.Train[i], s.Train[j] = s.Train[j], s.Train[i] })
	rng.Shuffle(len(s.Test), func(i, j int) { s.Test[i], s.Test[j] = s.Test[j], s.Test[i] })
	return s
}

func testCount(n int, testSize float64) int {
	t := int(math.Ceil(float64(n) * testSize))
	if t > n {
		t = n
	}
	return t
}

// Take gathers rows of X and y by index. Rows are shared, not copied.
func Take(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	outX := make([][]float64, len(idx))
	outY := make([]int, len(idx))
	for k, i := range idx {
		outX[k] = X[i]
		outY[k] = y[i]
	}
	return outX, outY
}

// KFold returns k contiguous, unshuffled folds; the first n%k folds get one
// extra row.
func KFold(n, k int) []Split {
	folds := make([]Split, 0, k)
	start := 0
	for f := 0; f < k; f++ {
		size := n / k
		if f < n%k {
			size++
		}
		var s Split
		for i := 0; i < n; i++ {
			if i >= start && i < start+size {
				s.Test = append(s.Test, i)
			} else {
				s.Train = append(s.Train, i)
			}
		}
		folds = append(folds, s)
		start += size
	}
	return folds
}

// StratifiedKFold splits each class into k contiguous chunks in row order
// and builds fold f from chunk f of every class.
func StratifiedKFold(y []int, k int) []Split {
	n := len(y)
	fold := make([]int, n)
	for _, class := range []int{0, 1} {
		var idx []int
		for i := range y {
			if y[i] == class {
				idx = append(idx, i)
			}
		}
		for f, chunk := range KFold(len(idx), k) {
			for _, t := range chunk.Test {
				fold[idx[t]] = f
			}
		}
	}
	folds := make([]Split, k)
	for i := 0; i < n; i++ {
		for f := range folds {
			if fold[i] == f {
				folds[f].Test = append(folds[f].Test, i)
			} else {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
	}
	return folds
}
