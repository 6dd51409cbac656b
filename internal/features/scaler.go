package features

import (
	"fmt"
	"math"

	"frauddetect/internal/apperr"
)

// MinMaxScaler maps each column to [0, 1] using the range seen at fit time.
// Values outside that range map outside [0, 1].
type MinMaxScaler struct {
	Min []float64
	Max []float64
}

// Fit records per-column min and max. names is used for error messages only
// and may be nil. A column whose range is zero is rejected.
func (s *MinMaxScaler) Fit(X [][]float64, names []string) error {
	if len(X) == 0 {
		return &apperr.DataQualityError{Reason: "cannot fit scaler on an empty matrix"}
	}
	d := len(X[0])
	mins := make([]float64, d)
	maxs := make([]float64, d)
	for j := 0; j < d; j++ {
		mins[j] = math.Inf(1)
		maxs[j] = math.Inf(-1)
	}
	for _, row := range X {
		for j, v := range row {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}
	for j := 0; j < d; j++ {
		if maxs[j]-mins[j] == 0 || math.IsInf(mins[j], 0) {
			col := fmt.Sprintf("#%d", j)
			if j < len(names) {
				col = names[j]
			}
			return &apperr.DataQualityError{Column: col, Reason: "zero variance at scaler fit"}
		}
	}
	s.Min, s.Max = mins, maxs
	return nil
}

// Transform returns a scaled copy of X.
func (s *MinMaxScaler) Transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Min[j]) / (s.Max[j] - s.Min[j])
		}
		out[i] = r
	}
	return out
}

// FitTransform fits on X and returns the scaled copy.
func (s *MinMaxScaler) FitTransform(X [][]float64, names []string) ([][]float64, error) {
	if err := s.Fit(X, names); err != nil {
		return nil, err
	}
	return s.Transform(X), nil
}
