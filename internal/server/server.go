// Package server exposes the dashboard as a JSON API plus a websocket
// snapshot stream. It is a read/control surface only; all data production
// happens in the refresh loop.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"MarketPulse/internal/model"
	"MarketPulse/internal/refresh"
	"MarketPulse/internal/session"
)

// Server is the dashboard HTTP server.
type Server struct {
	httpServer *http.Server
	session    *session.Session
	controller *refresh.Controller
	hub        *Hub
	symbols    []string
	logger     *zap.SugaredLogger
}

// New builds the server and its routes.
func New(addr string, sess *session.Session, ctrl *refresh.Controller, hub *Hub, gatherer prometheus.Gatherer, symbols []string, logger *zap.SugaredLogger) *Server {
	s := &Server{
		session:    sess,
		controller: ctrl,
		hub:        hub,
		symbols:    symbols,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/live", s.handleLive)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/controls", s.handleControls)
	mux.HandleFunc("/ws", hub.HandleWS)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Infow("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the route handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	setCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	snap := s.session.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no data yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"live": s.session.Live()})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":     s.symbols,
		"periods":     model.Periods,
		"chart_types": model.ChartTypes,
		"controls":    s.session.Controls(),
	})
}

// controlsRequest carries a partial controls update; nil fields keep their
// current value.
type controlsRequest struct {
	Symbol      *string              `json:"symbol"`
	Period      *string              `json:"period"`
	ChartType   *string              `json:"chart_type"`
	AutoRefresh *bool                `json:"auto_refresh"`
	IntervalSec *int                 `json:"interval_sec"`
	Alerts      *session.AlertConfig `json:"alerts"`
}

func (s *Server) handleControls(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		setCORS(w)
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.session.Controls())
		return
	case http.MethodPost:
	default:
		writeError(w, http.StatusMethodNotAllowed, "use GET or POST")
		return
	}

	var req controlsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	controls := s.session.Controls()
	if req.Symbol != nil {
		symbol := strings.ToUpper(strings.TrimSpace(*req.Symbol))
		if symbol == "" {
			writeError(w, http.StatusBadRequest, "symbol must not be empty")
			return
		}
		controls.Symbol = symbol
	}
	if req.Period != nil {
		period, err := model.ParsePeriod(*req.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		controls.Period = period
	}
	if req.ChartType != nil {
		chart, err := model.ParseChartType(*req.ChartType)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		controls.ChartType = chart
	}
	if req.AutoRefresh != nil {
		controls.AutoRefresh = *req.AutoRefresh
	}
	if req.IntervalSec != nil {
		controls.IntervalSec = *req.IntervalSec
	}
	if req.Alerts != nil {
		controls.Alerts = *req.Alerts
	}

	if s.session.SetControls(controls) {
		s.logger.Infow("dashboard retargeted",
			"symbol", controls.Symbol, "period", controls.Period)
		s.controller.TriggerRefresh()
	}

	writeJSON(w, http.StatusOK, s.session.Controls())
}
