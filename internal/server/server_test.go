package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"balancedbag/internal/config"
	"balancedbag/internal/data"
	"balancedbag/internal/models/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func mockModel(proba [][]float64) *mocks.MockClassifier {
	m := &mocks.MockClassifier{}
	m.On("PredictProba", mock.Anything).Return(proba)
	m.On("Classes").Return([]int{0, 1})
	m.On("Name").Return("Mock")
	return m
}

func testConfig() config.Server {
	cfg := config.Default().Server
	cfg.DataPath = filepath.Join(os.TempDir(), "does-not-exist.csv")
	cfg.MetricsPath = cfg.DataPath
	return cfg
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf.Write(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func expense(category string, amount float64, req, travel string) data.ExpenseInput {
	return data.ExpenseInput{
		ExpenseID:   "E1",
		RequesterID: "U1",
		TravellerID: "U1",
		ApproverID:  "A1",
		RequestDate: req,
		TravelDate:  travel,
		Category:    category,
		Amount:      amount,
	}
}

func TestPredict(t *testing.T) {
	m := mockModel([][]float64{{0.1, 0.9}})
	s := New(testConfig(), m, 0.5, nil)

	w, out := do(t, s.Handler(), http.MethodPost, "/predict", expense("Taxi", 50, "2024-03-01", "2024-03-05"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.9, out["score"], 1e-12)
	assert.Equal(t, true, out["fraud"])
	assert.Equal(t, RiskMedium, out["risk"])
	assert.Equal(t, "Mock", out["model"])
	assert.Empty(t, out["flags"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, w.Header().Get(requestIDHeader), out["request_id"])
	m.AssertExpectations(t)
}

func TestPredictHardViolationIsHighRisk(t *testing.T) {
	s := New(testConfig(), mockModel([][]float64{{0.99, 0.01}}), 0.5, nil)

	w, out := do(t, s.Handler(), http.MethodPost, "/predict", expense("Taxi", 50, "2024-03-05", "2024-03-01"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, RiskHigh, out["risk"])
	assert.Equal(t, false, out["fraud"])
	assert.Contains(t, out["flags"], "data de viagem anterior à solicitação")
}

func TestPredictBadRequest(t *testing.T) {
	s := New(testConfig(), mockModel(nil), 0.5, nil)

	w, _ := do(t, s.Handler(), http.MethodPost, "/predict", expense("Taxi", 50, "", "2024-03-01"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s.Handler(), http.MethodPost, "/predict", expense("Taxi", 50, "01/03/2024", "2024-03-01"), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKey = "k"
	s := New(cfg, mockModel([][]float64{{0.5, 0.5}}), 0.5, nil)
	body := expense("Hospedagem", 200, "2024-03-01", "2024-03-02")

	w, _ := do(t, s.Handler(), http.MethodPost, "/predict", body, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, s.Handler(), http.MethodPost, "/predict", body, map[string]string{"X-API-Key": "k"})
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	w, _ = do(t, s.Handler(), http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBatch(t *testing.T) {
	s := New(testConfig(), mockModel([][]float64{{0.9, 0.1}, {0.2, 0.8}}), 0.7, nil)
	body := []data.ExpenseInput{
		expense("Alimentação", 40, "2024-03-01", "2024-03-01"),
		expense("Transporte", 100, "2024-03-01", "2024-03-10"),
	}

	w, out := do(t, s.Handler(), http.MethodPost, "/batch", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items, ok := out["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first, second := items[0].(map[string]any), items[1].(map[string]any)
	assert.InDelta(t, 0.1, first["score"], 1e-12)
	assert.Equal(t, false, first["fraud"])
	assert.Equal(t, RiskVeryLow, first["risk"])
	assert.InDelta(t, 0.8, second["score"], 1e-12)
	assert.Equal(t, true, second["fraud"])
}

func TestBatchLimits(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBatch = 1
	s := New(cfg, mockModel(nil), 0.5, nil)
	body := []data.ExpenseInput{
		expense("Taxi", 10, "2024-03-01", "2024-03-01"),
		expense("Taxi", 10, "2024-03-01", "2024-03-01"),
	}
	w, _ := do(t, s.Handler(), http.MethodPost, "/batch", body, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w, out := do(t, s.Handler(), http.MethodPost, "/batch", []data.ExpenseInput{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, out["items"])
}

func TestRuleModelFallback(t *testing.T) {
	s := New(testConfig(), nil, 0, nil)

	w, out := do(t, s.Handler(), http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "RuleModel", out["model"])
	assert.Equal(t, 0.5, out["threshold"])

	// approver is the requester and the amount is a round multiple of 5
	body := expense("Hospedagem", 200, "2024-03-01", "2024-03-03")
	body.ApproverID = body.RequesterID
	w, out = do(t, s.Handler(), http.MethodPost, "/predict", body, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 0.05+0.35+0.1+0.15+0.15, out["score"], 1e-9)
}

func TestRuleModelScore(t *testing.T) {
	r := &RuleModel{}
	v := make([]float64, 13)
	assert.InDelta(t, 0.05, r.PredictProba([][]float64{v})[0][1], 1e-12)

	v[1] = -2
	v[4] = 1
	v[6], v[7] = 1, 1
	p := r.PredictProba([][]float64{v})[0]
	assert.InDelta(t, 0.95, p[1], 1e-12)
	assert.InDelta(t, 0.05, p[0], 1e-12)
}

func TestDashboard(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.DataPath = filepath.Join(dir, "synthetic.csv")
	cfg.MetricsPath = filepath.Join(dir, "curve.csv")
	require.NoError(t, data.GenerateSyntheticExpenses(300, 0.05, 1, cfg.DataPath))
	require.NoError(t, os.WriteFile(cfg.MetricsPath, []byte("size,test_acc,test_f1\n100,0.81,0.4\n200,0.86,0.5\n"), 0o644))

	s := New(cfg, nil, 0.5, nil)

	w, out := do(t, s.Handler(), http.MethodGet, "/dashboard/data", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, out["items"], dashboardLimit)

	_, out = do(t, s.Handler(), http.MethodGet, "/dashboard/data?category=taxi", nil, nil)
	items := out["items"].([]any)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.Equal(t, "Taxi", it.(map[string]any)["category"])
	}

	_, out = do(t, s.Handler(), http.MethodGet, "/dashboard/metrics", nil, nil)
	assert.Equal(t, map[string]any{"size": "200", "test_acc": "0.86", "test_f1": "0.5"}, out["metrics"])
}

func TestDashboardMissingFiles(t *testing.T) {
	s := New(testConfig(), nil, 0.5, nil)
	_, out := do(t, s.Handler(), http.MethodGet, "/dashboard/data", nil, nil)
	assert.Empty(t, out["items"])
	_, out = do(t, s.Handler(), http.MethodGet, "/dashboard/metrics", nil, nil)
	assert.Empty(t, out["metrics"])
}

func TestPrometheusEndpoint(t *testing.T) {
	s := New(testConfig(), mockModel([][]float64{{0.3, 0.7}}), 0.5, nil)
	do(t, s.Handler(), http.MethodPost, "/predict", expense("Taxi", 20, "2024-03-01", "2024-03-01"), nil)

	w, _ := do(t, s.Handler(), http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fraud_predictions_total")
	assert.Contains(t, w.Body.String(), `path="/predict"`)
}

func TestDetectAnomalies(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, detectAnomalies("Taxi", 50, d, d))
	assert.Equal(t, []string{"valor não positivo"}, detectAnomalies("Taxi", 0, d, d))
	assert.Equal(t, []string{"valor acima do máximo permitido para a categoria"}, detectAnomalies("taxi", 2500, d, d))
	assert.Equal(t, []string{"valor abaixo da faixa típica da categoria"}, detectAnomalies("Hospedagem", 40, d, d))
	assert.Len(t, detectAnomalies("Outro", -1, d, d.AddDate(0, 0, -1)), 2)
}

func TestRiskBands(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, RiskHigh, riskBand(0.96))
	assert.Equal(t, RiskLow, riskBand(0.5))
	assert.Equal(t, RiskMedium, riskWithAnomalies(0.1, "Taxi", 400, d, d))
	assert.Equal(t, RiskHigh, riskWithAnomalies(0.8, "Taxi", 400, d, d))
	assert.Equal(t, RiskHigh, riskWithAnomalies(0.1, "Taxi", 2500, d, d))
	assert.Equal(t, RiskLow, riskWithAnomalies(0.1, "Hospedagem", 40, d, d))
	assert.Equal(t, RiskVeryLow, riskWithAnomalies(0.1, "Outro", 40, d, d))
}
