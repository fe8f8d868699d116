package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/finsight-hq/burnwatch/pkg/metrics"
	"github.com/finsight-hq/burnwatch/pkg/model"
	"github.com/finsight-hq/burnwatch/pkg/storage"
	"github.com/finsight-hq/burnwatch/pkg/threshold"
)

// Server provides health check, metrics, and alert API endpoints.
type Server struct {
	store     storage.Storage
	evaluator *threshold.Evaluator
	mux       *http.ServeMux
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer creates an API server.
func NewServer(store storage.Storage, evaluator *threshold.Evaluator, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		evaluator: evaluator,
		mux:       http.NewServeMux(),
		logger:    logger,
		now:       time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/v1/burn", s.handleBurn)
	s.mux.HandleFunc("GET /api/v1/runway", s.handleRunway)
	s.mux.HandleFunc("POST /api/v1/transactions", s.handleIngest)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func orgFromQuery(r *http.Request) string {
	if org := r.URL.Query().Get("org"); org != "" {
		return org
	}
	return "default"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	alerts := s.evaluator.Check(ctx, orgFromQuery(r))
	if alerts == nil {
		alerts = []model.ThresholdAlert{}
	}
	writeJSON(w, alerts)
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	months := 3
	if m := r.URL.Query().Get("months"); m != "" {
		if _, err := fmt.Sscanf(m, "%d", &months); err != nil || months <= 0 {
			http.Error(w, "invalid months parameter", http.StatusBadRequest)
			return
		}
	}

	now := s.now()
	start := now.AddDate(0, -months, 0)
	txns, err := s.store.TransactionsInRange(ctx, orgFromQuery(r), start, now)
	if err != nil {
		s.logger.Error("query transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, metrics.CalculateBurnRate(txns, start, now))
}

// runwayResponse avoids marshaling the +Inf months value of an indefinite
// runway, which encoding/json rejects.
type runwayResponse struct {
	Months     *float64   `json:"months,omitempty"`
	Indefinite bool       `json:"indefinite"`
	ZeroDate   *time.Time `json:"zero_date,omitempty"`
}

func (s *Server) handleRunway(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	org := orgFromQuery(r)
	now := s.now()

	txns, err := s.store.TransactionsInRange(ctx, org, now.AddDate(0, -3, 0), now)
	if err != nil {
		s.logger.Error("query transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	cash, err := s.store.TotalCash(ctx, org)
	if err != nil {
		s.logger.Error("query balances", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	burn := metrics.CalculateBurnRate(txns, now.AddDate(0, -3, 0), now)
	runway := metrics.CalculateRunway(burn, cash, now)

	resp := runwayResponse{Indefinite: runway.Indefinite(), ZeroDate: runway.ZeroDate}
	if !resp.Indefinite {
		resp.Months = &runway.Months
	}
	writeJSON(w, resp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var txns []model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txns); err != nil {
		http.Error(w, "invalid transaction payload", http.StatusBadRequest)
		return
	}

	for i := range txns {
		if txns[i].Type != model.TxnDebit && txns[i].Type != model.TxnCredit {
			http.Error(w, fmt.Sprintf("transaction %d: unknown type %q", i, txns[i].Type), http.StatusBadRequest)
			return
		}
		if txns[i].OrgID == "" {
			txns[i].OrgID = orgFromQuery(r)
		}
	}

	if err := s.store.AddTransactions(ctx, txns); err != nil {
		s.logger.Error("store transactions", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]int{"imported": len(txns)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
