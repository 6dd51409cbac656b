package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"frauddetect/internal/eval"
)

// WriteBakeOffCSV writes one row per strategy and model family.
func WriteBakeOffCSV(path string, res eval.BakeOffResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"strategy", "model", "accuracy", "precision", "recall", "f1", "roc_auc", "pr_auc", "tn", "fp", "fn", "tp"}); err != nil {
		return err
	}
	strategies := make([]string, 0, len(res))
	for s := range res {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		for _, name := range res.Ranking(s) {
			m := res[s][name]
			rec := []string{s, name,
				fmt.Sprintf("%.6f", m.Accuracy), fmt.Sprintf("%.6f", m.Precision),
				fmt.Sprintf("%.6f", m.Recall), fmt.Sprintf("%.6f", m.F1),
				fmt.Sprintf("%.6f", m.ROCAUC), fmt.Sprintf("%.6f", m.PRAUC),
				strconv.Itoa(m.Confusion[0][0]), strconv.Itoa(m.Confusion[0][1]),
				strconv.Itoa(m.Confusion[1][0]), strconv.Itoa(m.Confusion[1][1]),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

// PlotCV draws per-fold scores of each strategy as a line chart.
func PlotCV(path string, cv map[string]eval.CVResult) error {
	p := plot.New()
	p.Title.Text = "Cross-validation by resampling strategy"
	p.X.Label.Text = "fold"
	p.Y.Label.Text = "accuracy"
	p.Y.Min = 0
	p.Y.Max = 1

	names := make([]string, 0, len(cv))
	for s := range cv {
		names = append(names, s)
	}
	sort.Strings(names)
	var lines []interface{}
	for _, s := range names {
		scores := cv[s].Scores
		pts := make(plotter.XYs, len(scores))
		for i := range scores {
			pts[i].X = float64(i + 1)
			pts[i].Y = scores[i]
		}
		lines = append(lines, fmt.Sprintf("%s (mean %.3f)", s, cv[s].Mean), pts)
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
