package inference

import (
	"fmt"
	"math"
	"sort"

	"frauddetect/internal/apperr"
	"frauddetect/internal/artifact"
	"frauddetect/internal/data"
	"frauddetect/internal/explain"
	"frauddetect/internal/features"
	"frauddetect/internal/models"
)

// Prediction labels returned to callers.
const (
	LabelNotFraud = "Not Fraud"
	LabelFraud    = "Fraud"
)

// Predictor serves a loaded artifact. It is never mutated after New, so one
// Predictor can be shared across request goroutines.
type Predictor struct {
	art     *artifact.Artifact
	builder *features.Builder
	scaler  *features.MinMaxScaler
	forest  *models.RandomForest
}

// New checks that the artifact's recorded feature order matches the order
// this build produces and restores its encoder and scaler.
func New(a *artifact.Artifact) (*Predictor, error) {
	want := features.Columns()
	if len(a.FeatureColumns) != len(want) {
		return nil, &apperr.ArtifactError{Reason: fmt.Sprintf("artifact has %d feature columns, want %d", len(a.FeatureColumns), len(want))}
	}
	for i := range want {
		if a.FeatureColumns[i] != want[i] {
			return nil, &apperr.ArtifactError{Reason: fmt.Sprintf("feature column %d is %q, want %q", i, a.FeatureColumns[i], want[i])}
		}
	}
	return &Predictor{
		art:     a,
		builder: &features.Builder{Encoder: a.Encoder()},
		scaler:  a.Scaler(),
		forest:  a.Forest,
	}, nil
}

// Artifact returns the metadata the predictor was built from.
func (p *Predictor) Artifact() *artifact.Artifact { return p.art }

// Preprocess builds scaled feature rows exactly as training did.
func (p *Predictor) Preprocess(txs []data.Transaction) ([][]float64, error) {
	X, _, err := p.builder.Transform(txs)
	if err != nil {
		return nil, err
	}
	return p.scaler.Transform(X), nil
}

// PredictProba returns the fraud probability of each row.
func (p *Predictor) PredictProba(X [][]float64) []float64 {
	return p.forest.PredictProba(X)
}

// Predict maps each row to LabelFraud or LabelNotFraud.
func (p *Predictor) Predict(X [][]float64) []string {
	pred := p.forest.Predict(X)
	out := make([]string, len(pred))
	for i, v := range pred {
		out[i] = Label(v)
	}
	return out
}

// Label names a class.
func Label(class int) string {
	if class == 1 {
		return LabelFraud
	}
	return LabelNotFraud
}

// Explanation breaks one prediction into a bias and per-feature contributions,
// largest magnitude first.
type Explanation struct {
	Prediction    string               `json:"prediction"`
	Probability   float64              `json:"probability"`
	Bias          float64              `json:"bias"`
	Contributions []explain.Importance `json:"contributions"`
}

// Explain attributes every row's probability to the input features.
func (p *Predictor) Explain(X [][]float64) []Explanation {
	out, _ := p.Attribute(X)
	return out
}

// Attribute is Explain plus the raw attribution matrix, one row per input
// in feature-column order.
func (p *Predictor) Attribute(X [][]float64) ([]Explanation, [][]float64) {
	attr, bias := explain.Contributions(p.forest, X)
	ps := p.forest.PredictProba(X)
	cols := p.art.FeatureColumns
	out := make([]Explanation, len(X))
	for i := range X {
		contrib := make([]explain.Importance, len(cols))
		for j, c := range cols {
			contrib[j] = explain.Importance{Feature: c, Value: attr[i][j]}
		}
		sort.SliceStable(contrib, func(a, b int) bool {
			return math.Abs(contrib[a].Value) > math.Abs(contrib[b].Value)
		})
		class := 0
		if ps[i] >= 0.5 {
			class = 1
		}
		out[i] = Explanation{Prediction: Label(class), Probability: ps[i], Bias: bias[i], Contributions: contrib}
	}
	return out, attr
}
