package server

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"balancedbag/internal/config"
	"balancedbag/internal/data"
	"balancedbag/internal/features"
	"balancedbag/internal/metrics"
	"balancedbag/internal/models"
)

const dashboardLimit = 200

// Server exposes a fitted classifier over HTTP. Scores are the probability
// of label 1; Threshold turns a score into the fraud verdict.
type Server struct {
	cfg       config.Server
	model     models.Classifier
	threshold float64
	logger    *zap.Logger
	engine    *gin.Engine
}

// New wires the routes. A nil model falls back to RuleModel and a
// threshold outside (0, 1) to 0.5.
func New(cfg config.Server, model models.Classifier, threshold float64, logger *zap.Logger) *Server {
	if model == nil {
		model = &RuleModel{}
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{cfg: cfg, model: model, threshold: threshold, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), requestID, instrument(logger))

	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/dashboard/data", s.dashboardData)
	r.GET("/dashboard/metrics", s.dashboardMetrics)

	api := r.Group("/")
	api.Use(s.apiKeyMiddleware)
	api.POST("/predict", s.handlePredict)
	api.POST("/batch", s.handleBatch)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains for up to five seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: ":" + s.cfg.Port, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr), zap.String("model", s.model.Name()))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) apiKeyMiddleware(c *gin.Context) {
	if s.cfg.APIKey == "" {
		c.Next()
		return
	}
	if c.GetHeader("X-API-Key") != s.cfg.APIKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model": s.model.Name(), "threshold": s.threshold})
}

func (s *Server) scores(X [][]float64) []float64 {
	return metrics.PositiveColumn(s.model.PredictProba(X), s.model.Classes())
}

func (s *Server) result(e data.Expense, p float64) gin.H {
	flags := detectAnomalies(e.Category, e.Amount, e.RequestDate, e.TravelDate)
	risk := riskWithAnomalies(p, e.Category, e.Amount, e.RequestDate, e.TravelDate)
	observePrediction(s.model.Name(), risk, p)
	return gin.H{
		"expense_id": e.ExpenseID,
		"score":      p,
		"fraud":      p >= s.threshold,
		"risk":       risk,
		"flags":      flags,
	}
}

func (s *Server) handlePredict(c *gin.Context) {
	var req data.ExpenseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e, err := req.Expense()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v, _ := features.Vectorize(e)
	out := s.result(e, s.scores([][]float64{v})[0])
	out["model"] = s.model.Name()
	out["request_id"] = c.GetString("request_id")
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleBatch(c *gin.Context) {
	var items []data.ExpenseInput
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(items) > s.cfg.MaxBatch && s.cfg.MaxBatch > 0 {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "batch too large"})
		return
	}
	exps := make([]data.Expense, len(items))
	X := make([][]float64, len(items))
	for i, it := range items {
		e, err := it.Expense()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "index": i})
			return
		}
		exps[i] = e
		X[i], _ = features.Vectorize(e)
	}
	out := make([]gin.H, len(items))
	if len(X) > 0 {
		ps := s.scores(X)
		for i := range exps {
			out[i] = s.result(exps[i], ps[i])
		}
	}
	c.JSON(http.StatusOK, gin.H{"model": s.model.Name(), "request_id": c.GetString("request_id"), "items": out})
}

func (s *Server) dashboardData(c *gin.Context) {
	rows, err := readCSV(s.cfg.DataPath)
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusOK, gin.H{"items": []gin.H{}})
		return
	}
	q := strings.ToLower(c.Query("category"))
	var exps []data.Expense
	var X [][]float64
	for _, row := range rows[1:] {
		if len(exps) == dashboardLimit {
			break
		}
		e, err := features.ParseRecord(row)
		if err != nil {
			s.logger.Warn("skipping dashboard row", zap.String("expense_id", row[0]), zap.Error(err))
			continue
		}
		if q != "" && strings.ToLower(e.Category) != q {
			continue
		}
		v, _ := features.Vectorize(e)
		exps = append(exps, e)
		X = append(X, v)
	}
	items := make([]gin.H, 0, len(exps))
	if len(X) > 0 {
		for i, p := range s.scores(X) {
			e := exps[i]
			items = append(items, gin.H{
				"expense_id": e.ExpenseID,
				"category":   e.Category,
				"amount":     e.Amount,
				"department": e.Department,
				"date":       e.RequestDate.Format(data.DateLayout),
				"score":      p,
				"risk":       riskBand(p),
				"model":      s.model.Name(),
			})
		}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

var curveColumns = []string{"size", "train_acc", "test_acc", "train_f1", "test_f1",
	"train_roc_auc", "test_roc_auc", "train_pr_auc", "test_pr_auc", "test_balanced_acc"}

// dashboardMetrics reports the last (largest) point of the learning curve.
func (s *Server) dashboardMetrics(c *gin.Context) {
	rows, err := readCSV(s.cfg.MetricsPath)
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusOK, gin.H{"metrics": gin.H{}})
		return
	}
	hdr, last := rows[0], rows[len(rows)-1]
	vals := map[string]string{}
	for i := range hdr {
		if i < len(last) {
			vals[hdr[i]] = last[i]
		}
	}
	out := gin.H{}
	for _, k := range curveColumns {
		if v, ok := vals[k]; ok {
			out[k] = v
		}
	}
	c.JSON(http.StatusOK, gin.H{"metrics": out})
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
