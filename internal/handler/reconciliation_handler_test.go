package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libertypay/card-reconciliation/internal/config"
	"github.com/libertypay/card-reconciliation/internal/model"
	"github.com/libertypay/card-reconciliation/internal/recon"
	"github.com/libertypay/card-reconciliation/internal/service"
)

type stubLoader struct {
	tables model.Tables
}

func (s *stubLoader) LoadAll() (model.Tables, error) { return s.tables, nil }

func (s *stubLoader) LoadAllFrom(io.Reader) (model.Tables, error) { return s.tables, nil }

type memStore struct {
	saved []model.MetricsSnapshot
}

func (m *memStore) Save(_ context.Context, snap model.MetricsSnapshot) error {
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memStore) GetByDate(_ context.Context, runDate string) (*model.MetricsSnapshot, error) {
	for i := range m.saved {
		if m.saved[i].RunDate == runDate {
			return &m.saved[i], nil
		}
	}
	return nil, pgxNoRows()
}

func (m *memStore) GetLatest(_ context.Context) (*model.MetricsSnapshot, error) {
	if len(m.saved) == 0 {
		return nil, pgxNoRows()
	}
	return &m.saved[len(m.saved)-1], nil
}

func (m *memStore) List(_ context.Context, limit, offset int) ([]model.MetricsSnapshot, int, error) {
	return m.saved, len(m.saved), nil
}

// pgxNoRows lets the in-memory store exercise the same not-found mapping
// the real repository produces.
func pgxNoRows() error { return pgx.ErrNoRows }

func setupReconRouter(t *testing.T, store service.MetricsStore) *gin.Engine {
	t.Helper()

	params := recon.DefaultCostModel()
	params.NIBSSMerchantID = "2215LA525653900"
	params.InterswitchMerchantID = "2LBP87654321988"
	params.ParallexMerchantID = "210000000000000"

	loader := &stubLoader{tables: model.Tables{
		CardTransactions: model.RawTable{Rows: []map[string]string{{
			"id": "1", "date_created": "2024-01-15 10:00:00",
			"merchant_id": "2215LA525653900", "host_resp_code": "0",
			"amount": "10000", "liberty_commission": "50", "ro_profit": "10",
			"reference_number": "111111111111",
		}}},
	}}

	cfg := &config.Config{DaysOffset: 18}
	engine := recon.New(params, zerolog.Nop())
	svc := service.NewReconciliationService(engine, loader, store, cfg, zerolog.Nop())

	reconHandler := NewReconciliationHandler(svc)
	metricsHandler := NewMetricsHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api/v1")
	api.POST("/reconciliation/run", reconHandler.Run)
	api.GET("/reconciliation/debug", reconHandler.Debug)
	api.GET("/reconciliation/metrics", metricsHandler.List)
	api.GET("/reconciliation/metrics/latest", metricsHandler.GetLatest)
	api.GET("/reconciliation/metrics/:run_date", metricsHandler.GetByDate)

	return router
}

func TestReconciliationHandler_Run(t *testing.T) {
	t.Run("happy: json trigger with pinned date", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run",
			bytes.NewBufferString(`{"run_date":"2024-01-15"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome service.RunOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.Equal(t, "2024-01-15", outcome.RunDate)
		assert.Equal(t, 18.0, outcome.Metrics.TotalRevenue)
		assert.Len(t, outcome.Datasets, 13)
		assert.Nil(t, outcome.Debug)
	})

	t.Run("happy: empty body uses defaults", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	t.Run("happy: debug flag includes the report", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run",
			bytes.NewBufferString(`{"run_date":"2024-01-15","debug":true}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var outcome service.RunOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.NotNil(t, outcome.Debug)
	})

	t.Run("happy: multipart upload", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("workbook", "recon.xlsx")
		require.NoError(t, err)
		_, err = part.Write([]byte("stub loader ignores the bytes"))
		require.NoError(t, err)
		require.NoError(t, mw.WriteField("run_date", "2024-01-15"))
		require.NoError(t, mw.Close())

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome service.RunOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.Equal(t, "2024-01-15", outcome.RunDate)
	})

	t.Run("bad: malformed run date", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run",
			bytes.NewBufferString(`{"run_date":"15/01/2024"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("happy: debug report served after a run", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/debug", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "no run yet")

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("POST", "/api/v1/reconciliation/run",
			bytes.NewBufferString(`{"run_date":"2024-01-15"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req, _ = http.NewRequest("GET", "/api/v1/reconciliation/debug", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "card_transactions")
	})

	t.Run("bad: negative days offset", func(t *testing.T) {
		router := setupReconRouter(t, &memStore{})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run",
			bytes.NewBufferString(`{"days_offset":-1}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMetricsHandler(t *testing.T) {
	store := &memStore{}
	router := setupReconRouter(t, store)

	// Seed one run through the API.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/reconciliation/run",
		bytes.NewBufferString(`{"run_date":"2024-01-15"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("happy: by date", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/metrics/2024-01-15", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var snap model.MetricsSnapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
		assert.Equal(t, "2024-01-15", snap.RunDate)
	})

	t.Run("happy: latest", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/metrics/latest", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("happy: paginated list", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/metrics?page=1&page_size=10", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data       []model.MetricsSnapshot `json:"data"`
			Pagination struct {
				TotalItems int `json:"total_items"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Pagination.TotalItems)
	})

	t.Run("bad: malformed date parameter", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/metrics/not-a-date", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad: unknown date", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reconciliation/metrics/2019-01-01", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
