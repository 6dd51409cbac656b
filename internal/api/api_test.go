package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frauddetect/internal/artifact"
	"frauddetect/internal/data"
	"frauddetect/internal/features"
	"frauddetect/internal/inference"
	"frauddetect/internal/tuning"
)

func init() { gin.SetMode(gin.TestMode) }

func newPredictor(t *testing.T) *inference.Predictor {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tx.csv")
	require.NoError(t, data.GenerateSyntheticTransactions(400, 0.1, 7, path))
	txs, err := data.LoadCSV(path)
	require.NoError(t, err)
	b := features.NewBuilder(nil)
	X, y, err := b.FitTransform(txs)
	require.NoError(t, err)
	var sc features.MinMaxScaler
	Xs, err := sc.FitTransform(X, features.Columns())
	require.NoError(t, err)
	p := tuning.Params{NEstimators: 10, MaxDepth: 4, MinSamplesSplit: 2, MinSamplesLeaf: 1}
	rf := p.Forest(42)
	require.NoError(t, rf.Fit(Xs, y))
	pr, err := inference.New(&artifact.Artifact{
		Version:        artifact.Version,
		Strategy:       "frost",
		FeatureColumns: features.Columns(),
		Categories:     b.Encoder.Classes,
		ScalerMin:      sc.Min,
		ScalerMax:      sc.Max,
		Params:         p,
		Forest:         rf,
	})
	require.NoError(t, err)
	return pr
}

const record = `{"TransactionID": 1, "Timestamp": "2024-12-10 00:30:00", "MerchantID": 2001, "Amount": 55.2,
 "CustomerID": 1001, "TransactionAmount": 57.1, "AnomalyScore": 0.12, "Category": "Online",
 "CustomerAge": 34, "AccountBalance": 5120.5, "SuspiciousFlag": 0, "LastLogin": "2024-12-09 23:30:00"}`

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPredictSingleAndBatch(t *testing.T) {
	s := &Server{Predictor: newPredictor(t), MaxBatch: 10}
	r := s.Router()

	w := do(r, http.MethodPost, "/predict", record)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	var resp struct {
		Prediction  []string  `json:"prediction"`
		Probability []float64 `json:"probability"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Prediction, 1)
	assert.Contains(t, []string{inference.LabelFraud, inference.LabelNotFraud}, resp.Prediction[0])

	w = do(r, http.MethodPost, "/predict", "["+record+","+record+"]")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Prediction, 2)
	assert.Equal(t, resp.Probability[0], resp.Probability[1])
}

func TestPredictClientErrors(t *testing.T) {
	s := &Server{Predictor: newPredictor(t), MaxBatch: 1}
	r := s.Router()
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing column", strings.Replace(record, `"AnomalyScore": 0.12,`, "", 1), "AnomalyScore"},
		{"unknown category", strings.Replace(record, `"Online"`, `"Unicorns"`, 1), "Unicorns"},
		{"bad number", strings.Replace(record, `"Amount": 55.2`, `"Amount": "lots"`, 1), "Amount"},
		{"bad timestamp", strings.Replace(record, `"2024-12-10 00:30:00"`, `"soon"`, 1), "Timestamp"},
		{"invalid flag", strings.Replace(record, `"SuspiciousFlag": 0`, `"SuspiciousFlag": 3`, 1), "SuspiciousFlag"},
		{"invalid json", `{"TransactionID":`, "invalid json"},
		{"empty array", `[]`, "non-empty"},
		{"too many", "[" + record + "," + record + "]", "too many"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/predict", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestNoModelIsServerError(t *testing.T) {
	r := (&Server{}).Router()
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/predict", record).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/health", "").Code)
}

func TestExplainWithPlot(t *testing.T) {
	dir := t.TempDir()
	s := &Server{Predictor: newPredictor(t), StaticDir: dir}
	r := s.Router()

	w := do(r, http.MethodPost, "/explain?plot=true", record)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Explanations []inference.Explanation `json:"explanations"`
		Plot         string                  `json:"plot"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Explanations, 1)
	assert.Len(t, resp.Explanations[0].Contributions, len(features.Columns()))
	assert.Equal(t, "/static/"+ExplainPlot, resp.Plot)
	_, err := os.Stat(filepath.Join(dir, ExplainPlot))
	assert.NoError(t, err)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, resp.Plot, "").Code)
}

func TestConcurrentExplainPlots(t *testing.T) {
	dir := t.TempDir()
	s := &Server{Predictor: newPredictor(t), StaticDir: dir}
	r := s.Router()

	codes := make([]int, 8)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = do(r, http.MethodPost, "/explain?plot=true", "["+record+","+record+"]").Code
		}()
	}
	wg.Wait()
	for _, c := range codes {
		assert.Equal(t, http.StatusOK, c)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ExplainPlot, entries[0].Name())
}

func TestLog(t *testing.T) {
	r := (&Server{}).Router()
	w := do(r, http.MethodPost, "/log", `{"TransactionID": "a1", "Amount": 10, "Timestamp": "2024-01-01", "MerchantID": "m"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)

	w = do(r, http.MethodPost, "/log", `{"TransactionID": "a1", "Amount": 10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MerchantID")
	assert.Contains(t, w.Body.String(), "Timestamp")
}

func TestHealthAndMetrics(t *testing.T) {
	s := &Server{Predictor: newPredictor(t)}
	r := s.Router()
	w := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"strategy":"frost"`)

	do(r, http.MethodPost, "/predict", record)
	w = do(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "fraud_api_http_requests_total")
	assert.Contains(t, body, "fraud_model_predictions_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	r := (&Server{}).Router()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}
