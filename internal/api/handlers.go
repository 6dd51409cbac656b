package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"frauddetect/internal/apperr"
	"frauddetect/internal/data"
	"frauddetect/internal/explain"
)

var errTooMany = errors.New("too many records in one request")

// ExplainPlot is the file written under StaticDir by /explain?plot=true.
const ExplainPlot = "explain_summary.png"

func (s *Server) readRecords(c *gin.Context, cols []string) ([]map[string]any, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadJSON, err)
	}
	recs, err := decodeRecords(body)
	if err != nil {
		return nil, err
	}
	if s.MaxBatch > 0 && len(recs) > s.MaxBatch {
		return nil, fmt.Errorf("%w: %d > %d", errTooMany, len(recs), s.MaxBatch)
	}
	if err := requireKeys(recs, cols); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Server) transactions(c *gin.Context) ([]data.Transaction, error) {
	if s.Predictor == nil {
		return nil, &apperr.ArtifactError{Reason: "no model loaded"}
	}
	recs, err := s.readRecords(c, predictColumns)
	if err != nil {
		return nil, err
	}
	txs := make([]data.Transaction, len(recs))
	for i, r := range recs {
		tx, err := toTransaction(r, i+1)
		if err != nil {
			return nil, err
		}
		if err := validateRecord(tx); err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return txs, nil
}

// validateRecord applies the struct's binding tags. Missing numerics are
// checked as 0, the value the feature builder will use.
func validateRecord(tx data.Transaction) error {
	for _, f := range []*float64{&tx.Amount, &tx.TransactionAmount, &tx.AnomalyScore, &tx.CustomerAge, &tx.AccountBalance, &tx.SuspiciousFlag} {
		if math.IsNaN(*f) {
			*f = 0
		}
	}
	return binding.Validator.ValidateStruct(&tx)
}

func (s *Server) handlePredict(c *gin.Context) {
	txs, err := s.transactions(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	X, err := s.Predictor.Preprocess(txs)
	if err != nil {
		s.fail(c, err)
		return
	}
	labels := s.Predictor.Predict(X)
	s.Metrics.observePredictions(labels)
	c.JSON(http.StatusOK, gin.H{
		"prediction":  labels,
		"probability": s.Predictor.PredictProba(X),
		"request_id":  c.GetString(RequestIDHeader),
	})
}

func (s *Server) handleExplain(c *gin.Context) {
	txs, err := s.transactions(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	X, err := s.Predictor.Preprocess(txs)
	if err != nil {
		s.fail(c, err)
		return
	}
	exps, attr := s.Predictor.Attribute(X)
	resp := gin.H{"explanations": exps, "request_id": c.GetString(RequestIDHeader)}
	if c.Query("plot") == "true" && s.StaticDir != "" {
		if err := explain.SummaryPlot(filepath.Join(s.StaticDir, ExplainPlot), s.Predictor.Artifact().FeatureColumns, attr); err != nil {
			s.fail(c, err)
			return
		}
		resp["plot"] = "/static/" + ExplainPlot
	}
	c.JSON(http.StatusOK, resp)
}

// handleLog validates and records raw transactions without scoring them.
func (s *Server) handleLog(c *gin.Context) {
	recs, err := s.readRecords(c, logColumns)
	if err != nil {
		if statusFor(err) == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
			return
		}
		s.fail(c, err)
		return
	}
	for i, r := range recs {
		s.Log.Info("transaction logged",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.Int("record", i),
			zap.String("transaction_id", str(r[data.ColTransactionID])),
			zap.String("merchant_id", str(r[data.ColMerchantID])),
			zap.String("timestamp", str(r[data.ColTimestamp])),
			zap.Any("amount", r[data.ColAmount]),
		)
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Data ingested successfully.", "records": len(recs)})
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.Predictor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "no model", "model_loaded": false})
		return
	}
	a := s.Predictor.Artifact()
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"model_loaded":    true,
		"strategy":        a.Strategy,
		"params":          a.Params,
		"feature_columns": a.FeatureColumns,
		"created_at":      a.CreatedAt,
		"test_metrics":    a.TestMetrics,
	})
}
