package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

var (
	requestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_count_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	predictionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_predictions_total",
			Help: "Scored expenses by model and risk band",
		},
		[]string{"model", "risk"},
	)

	scoreHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fraud_score",
			Help:    "Distribution of fraud probabilities returned by the API",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
)

func requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set("request_id", id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func instrument(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start)
		requestDurationHistogram.WithLabelValues(c.Request.Method, path, status).Observe(elapsed.Seconds())
		requestCounter.WithLabelValues(c.Request.Method, path, status).Inc()
		logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("status", status),
			zap.Duration("elapsed", elapsed),
		)
	}
}

func observePrediction(model, risk string, p float64) {
	predictionCounter.WithLabelValues(model, risk).Inc()
	scoreHistogram.Observe(p)
}
