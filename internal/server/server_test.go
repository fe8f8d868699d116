package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/storage"
	"github.com/finsight-hq/burnwatch/pkg/threshold"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, storage.Storage) {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	evaluator := threshold.NewEvaluator(threshold.Default(), store, store, logger,
		threshold.WithClock(func() time.Time { return testNow }))

	s := NewServer(store, evaluator, logger)
	s.now = func() time.Time { return testNow }
	return s, store
}

// seedBurn inserts $1,000/day of debits for the 90 days before testNow plus a
// $20,000 monthly credit, a steady net burn of $10,000/mo.
func seedBurn(t *testing.T, store storage.Storage, org string) {
	t.Helper()

	var txns []model.Transaction
	for d := 1; d <= 90; d++ {
		txns = append(txns, model.Transaction{
			OrgID:  org,
			Date:   testNow.AddDate(0, 0, -d),
			Amount: decimal.NewFromInt(1000),
			Type:   model.TxnDebit,
			Vendor: "gusto",
		})
	}
	for m := 0; m < 3; m++ {
		txns = append(txns, model.Transaction{
			OrgID:  org,
			Date:   testNow.AddDate(0, -m, -15),
			Amount: decimal.NewFromInt(20000),
			Type:   model.TxnCredit,
			Vendor: "stripe",
		})
	}
	require.NoError(t, store.AddTransactions(context.Background(), txns))
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAlerts_Empty(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?org=acme", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAlerts_LowRunway(t *testing.T) {
	s, store := newTestServer(t)
	seedBurn(t, store, "acme")
	require.NoError(t, store.SetAccountBalance(context.Background(), "acme", "operating", decimal.NewFromInt(25000)))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/alerts?org=acme", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var alerts []model.ThresholdAlert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.NotEmpty(t, alerts)
	assert.Equal(t, model.AlertRunwayCritical, alerts[0].Type)
	assert.Equal(t, model.SeverityCritical, alerts[0].Severity)
}

func TestBurn(t *testing.T) {
	s, store := newTestServer(t)
	seedBurn(t, store, "acme")

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/burn?org=acme", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var burn model.BurnMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &burn))
	assert.True(t, burn.GrossBurn.GreaterThan(decimal.NewFromInt(29000)), "gross burn %s", burn.GrossBurn)
	assert.True(t, burn.NetBurn.LessThan(burn.GrossBurn))
}

func TestBurn_InvalidMonths(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/burn?org=acme&months=-2", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunway(t *testing.T) {
	s, store := newTestServer(t)
	seedBurn(t, store, "acme")
	require.NoError(t, store.SetAccountBalance(context.Background(), "acme", "operating", decimal.NewFromInt(90000)))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runway?org=acme", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp runwayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Indefinite)
	require.NotNil(t, resp.Months)
	assert.InDelta(t, 9.0, *resp.Months, 0.3)
	require.NotNil(t, resp.ZeroDate)
}

func TestRunway_Indefinite(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.SetAccountBalance(context.Background(), "acme", "operating", decimal.NewFromInt(500000)))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runway?org=acme", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp runwayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Indefinite)
	assert.Nil(t, resp.Months)
}

func TestIngest(t *testing.T) {
	s, store := newTestServer(t)

	payload := []model.Transaction{
		{Date: testNow.AddDate(0, 0, -1), Amount: decimal.NewFromInt(1200), Type: model.TxnDebit, Vendor: "aws"},
		{Date: testNow.AddDate(0, 0, -2), Amount: decimal.NewFromInt(50000), Type: model.TxnCredit, Vendor: "stripe"},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions?org=acme", bytes.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"imported":2}`, rec.Body.String())

	txns, err := store.TransactionsInRange(context.Background(), "acme", testNow.AddDate(0, 0, -7), testNow)
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestIngest_UnknownType(t *testing.T) {
	s, _ := newTestServer(t)

	body := []byte(`[{"date":"2025-05-30T00:00:00Z","amount":"100","type":"transfer"}]`)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngest_BadPayload(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
