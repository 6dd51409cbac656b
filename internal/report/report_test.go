package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frauddetect/internal/eval"
)

func TestWriteBakeOffCSV(t *testing.T) {
	res := eval.BakeOffResult{
		"smote": {
			"Decision Tree Classifier": {Accuracy: 0.9, F1: 0.7, Confusion: [2][2]int{{8, 1}, {1, 2}}},
			"Random Forest Classifier": {Accuracy: 0.95, F1: 0.9},
		},
		"frost": {
			"Random Forest Classifier": {F1: 0.8},
		},
	}
	path := filepath.Join(t.TempDir(), "out", "bakeoff.csv")
	require.NoError(t, WriteBakeOffCSV(path, res))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "strategy", rows[0][0])
	assert.Equal(t, []string{"frost", "Random Forest Classifier"}, rows[1][:2])
	assert.Equal(t, "Random Forest Classifier", rows[2][1])
	assert.Equal(t, []string{"0.700000"}, rows[3][5:6])
	assert.Equal(t, []string{"8", "1", "1", "2"}, rows[3][8:])
}

func TestPlotCV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.png")
	cv := map[string]eval.CVResult{
		"smote": {Scores: []float64{0.9, 0.92, 0.88, 0.91, 0.9}, Mean: 0.902},
		"frost": {Scores: []float64{0.95, 0.94, 0.96, 0.93, 0.95}, Mean: 0.946},
	}
	require.NoError(t, PlotCV(path, cv))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
