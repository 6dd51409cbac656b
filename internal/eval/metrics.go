package eval

import (
	"math"
	"sort"
)

// Metrics scores binary predictions. Confusion uses the [[tn, fp], [fn, tp]] layout.
type Metrics struct {
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1        float64   `json:"f1"`
	ROCAUC    float64   `json:"roc_auc"`
	PRAUC     float64   `json:"pr_auc"`
	Confusion [2][2]int `json:"confusion"`
}

// Score computes every metric; ps may be nil when no probabilities exist.
func Score(y, pred []int, ps []float64) Metrics {
	tp, fp, tn, fn := confusion(y, pred)
	m := Metrics{Confusion: [2][2]int{{tn, fp}, {fn, tp}}}
	m.Accuracy = accuracy(y, pred)
	m.Precision, m.Recall, m.F1 = prf1(tp, fp, fn)
	if ps != nil {
		m.ROCAUC = rocAUC(y, ps)
		m.PRAUC = prAUC(y, ps)
	}
	return m
}

// Scorer maps labels and predictions to a single number, higher is better.
type Scorer func(y, pred []int) float64

// AccuracyScore is the fraction of correct predictions.
func AccuracyScore(y, pred []int) float64 { return accuracy(y, pred) }

// F1Score is the harmonic mean of precision and recall for class 1.
func F1Score(y, pred []int) float64 {
	tp, fp, _, fn := confusion(y, pred)
	_, _, f1 := prf1(tp, fp, fn)
	return f1
}

func accuracy(y, p []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

func confusion(y, pred []int) (tp, fp, tn, fn int) {
	for i := range y {
		switch {
		case pred[i] == 1 && y[i] == 1:
			tp++
		case pred[i] == 1 && y[i] == 0:
			fp++
		case pred[i] == 0 && y[i] == 0:
			tn++
		default:
			fn++
		}
	}
	return
}

func prf1(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return
}

type scored struct {
	s float64
	y int
}

func sortedByScore(y []int, ps []float64) []scored {
	pairs := make([]scored, len(y))
	for i := range y {
		pairs[i] = scored{ps[i], y[i]}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].s > pairs[j].s })
	return pairs
}

func rocAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	var pos, neg int
	for _, p := range pairs {
		if p.y == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	tp, fp := 0, 0
	prevS := math.Inf(1)
	var auc, prevTPR, prevFPR float64
	for _, p := range pairs {
		if p.s != prevS {
			tpr := float64(tp) / float64(pos)
			fpr := float64(fp) / float64(neg)
			auc += (fpr - prevFPR) * (tpr + prevTPR) / 2.0
			prevTPR, prevFPR = tpr, fpr
			prevS = p.s
		}
		if p.y == 1 {
			tp++
		} else {
			fp++
		}
	}
	auc += (1 - prevFPR) * (1 + prevTPR) / 2.0
	return auc
}

func prAUC(y []int, ps []float64) float64 {
	pairs := sortedByScore(y, ps)
	var tp, fp, fn int
	for _, p := range pairs {
		if p.y == 1 {
			fn++
		}
	}
	var prevRec, auc float64
	for _, p := range pairs {
		if p.y == 1 {
			tp++
			fn--
		} else {
			fp++
		}
		var prec, rec float64
		if tp+fp > 0 {
			prec = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			rec = float64(tp) / float64(tp+fn)
		}
		auc += (rec - prevRec) * prec
		prevRec = rec
	}
	return auc
}
