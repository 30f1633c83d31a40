// Package api provides the HTTP REST API server for MarketGauge.
//
// It exposes the dashboard views (gamma profile, options flow, composite
// scores, sector rotation, market health, macro context, screener) plus
// WebSocket streaming of analysis events.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/openfolio/marketgauge/internal/analysis/fault"
	"github.com/openfolio/marketgauge/internal/config"
	"github.com/openfolio/marketgauge/internal/dashboard"
)

// Largest number of headlines a single news request may ask for.
const maxNewsLimit = 100

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	svc    *dashboard.Service
	wsHub  *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, svc *dashboard.Service) *Server {
	srv := &Server{
		cfg:   cfg,
		svc:   svc,
		wsHub: NewWSHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Per-ticker analysis
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/gamma/{symbol}", s.handleGamma)
		r.Get("/flow/{symbol}", s.handleFlow)
		r.Get("/gauge/{symbol}", s.handleGauge)
		r.Get("/canslim/{symbol}", s.handleCANSLIM)
		r.Get("/stage/{symbol}", s.handleStage)
		r.Get("/news/{symbol}", s.handleNews)

		// Market-wide views
		r.Get("/market/health", s.handleMarketHealth)
		r.Get("/market/health/history", s.handleMarketHealthHistory)
		r.Get("/sectors/rotation", s.handleSectorRotation)
		r.Get("/macro/yields", s.handleYieldCurve)
		r.Get("/macro/performance", s.handleMacroPerformance)

		// Screener
		r.Get("/screener/{strategy}", s.handleScreener)

		// Universe
		r.Get("/universe", s.handleUniverse)
		r.Post("/universe/refresh", s.handleUniverseRefresh)

		// Usage stats
		r.Get("/stats", s.handleStats)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Response helpers
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeFault maps the analysis failure taxonomy onto HTTP statuses.
func writeFault(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.KindDataUnavailable:
		status = http.StatusBadGateway
	case fault.KindInsufficientHistory, fault.KindPartialFieldMissing, fault.KindCalculation:
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err.Error())
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.svc.Quote(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: quote})
}

func (s *Server) handleGamma(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	profile, err := s.svc.GammaProfile(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "gamma_complete",
		Data: map[string]interface{}{"symbol": symbol},
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: profile})
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	report, err := s.svc.OptionsFlow(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "flow_complete",
		Data: map[string]interface{}{"symbol": symbol},
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: report})
}

func (s *Server) handleGauge(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.svc.PowerGauge(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleCANSLIM(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.svc.CANSLIM(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.svc.Stage(ctx, symbol)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > maxNewsLimit {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("limit must be an integer between 1 and %d", maxNewsLimit))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	articles, err := s.svc.News(ctx, symbol, limit)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: articles})
}

func (s *Server) handleMarketHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.svc.MarketHealth(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.wsHub.Broadcast(WSMessage{
		Type: "market_health",
		Data: map[string]interface{}{"signal": result.Signal},
	})
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleMarketHealthHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	points, err := s.svc.MarketHealthHistory(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: points})
}

func (s *Server) handleSectorRotation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	result, err := s.svc.SectorRotation(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleYieldCurve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.svc.YieldCurve(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleMacroPerformance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
	defer cancel()

	result, err := s.svc.MacroPerformance(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleScreener(w http.ResponseWriter, r *http.Request) {
	strategy := chi.URLParam(r, "strategy")
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.svc.Screen(ctx, strategy)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.svc.Universe(r.Context())
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: tickers})
}

func (s *Server) handleUniverseRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	tickers, err := s.svc.RefreshUniverse(ctx)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: tickers})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.svc.UsageStats()})
}
