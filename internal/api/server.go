package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"frauddetect/internal/apperr"
	"frauddetect/internal/inference"
)

// RequestIDHeader carries the per-request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Server wraps a loaded predictor in HTTP handlers. A nil Predictor is
// allowed; model routes then answer 500 until one is loaded.
type Server struct {
	Predictor *inference.Predictor
	Log       *zap.Logger
	Metrics   *Metrics
	StaticDir string
	MaxBatch  int
}

// Router builds the gin engine with request ids, access logs, metrics and recovery.
func (s *Server) Router() *gin.Engine {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Metrics == nil {
		s.Metrics = NewMetrics()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), s.accessLog(), s.Metrics.middleware())

	if s.StaticDir != "" {
		r.Static("/static", s.StaticDir)
	}
	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.Metrics.handler())
	r.POST("/predict", s.handlePredict)
	r.POST("/explain", s.handleExplain)
	r.POST("/log", s.handleLog)
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Log.Info("request",
			zap.String("request_id", c.GetString(RequestIDHeader)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// statusFor maps the error taxonomy onto HTTP: caller mistakes are 400,
// everything else is a server fault.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case apperr.IsClientError(err), errors.As(err, &verrs), errors.Is(err, errEmptyBody), errors.Is(err, errBadJSON), errors.Is(err, errTooMany):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.Log.Error("request failed", zap.String("request_id", c.GetString(RequestIDHeader)), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "request_id": c.GetString(RequestIDHeader)})
}
