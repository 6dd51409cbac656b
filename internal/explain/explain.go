package explain

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"frauddetect/internal/models"
)

// Contributions attributes each row's fraud probability to the features split
// on along its path. For every tree, moving from a node to its child credits
// child.Proba - node.Proba to the node's split feature; the root proba is the
// bias. Both are averaged over trees, so bias[i] + sum(attr[i]) equals the
// forest's PredictProba for row i.
func Contributions(rf *models.RandomForest, X [][]float64) ([][]float64, []float64) {
	attr := make([][]float64, len(X))
	bias := make([]float64, len(X))
	if len(rf.Trees) == 0 {
		return attr, bias
	}
	m := float64(len(rf.Trees))
	for i, x := range X {
		row := make([]float64, len(x))
		for _, tree := range rf.Trees {
			path := tree.Path(x)
			if len(path) == 0 {
				continue
			}
			bias[i] += path[0].Proba
			for k := 1; k < len(path); k++ {
				parent := path[k-1]
				row[parent.Feature] += path[k].Proba - parent.Proba
			}
		}
		for j := range row {
			row[j] /= m
		}
		bias[i] /= m
		attr[i] = row
	}
	return attr, bias
}

// Importance is the mean absolute attribution of one feature.
type Importance struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// MeanAbs ranks features by mean |attribution|, largest first.
func MeanAbs(names []string, attr [][]float64) []Importance {
	out := make([]Importance, len(names))
	for j, name := range names {
		out[j].Feature = name
		for _, row := range attr {
			out[j].Value += math.Abs(row[j])
		}
		if len(attr) > 0 {
			out[j].Value /= float64(len(attr))
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Value > out[b].Value })
	return out
}

// SummaryPlot writes a PNG bar chart of MeanAbs to path, replacing any
// existing file atomically.
func SummaryPlot(path string, names []string, attr [][]float64) error {
	if len(names) == 0 {
		return fmt.Errorf("summary plot: no features")
	}
	imp := MeanAbs(names, attr)
	vals := make(plotter.Values, len(imp))
	labels := make([]string, len(imp))
	for i, v := range imp {
		vals[i] = v.Value
		labels[i] = v.Feature
	}

	p := plot.New()
	p.Title.Text = "Mean |contribution| to fraud probability"
	p.Y.Label.Text = "mean |contribution|"
	p.Y.Min = 0
	bars, err := plotter.NewBarChart(vals, vg.Points(18))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4

	wt, err := p.WriterTo(10*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".summary-*.png")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := wt.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
