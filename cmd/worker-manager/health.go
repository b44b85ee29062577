package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readyCheckTimeout = 3 * time.Second

type healthServer struct {
	server *http.Server
	checks map[string]func(context.Context) error
	log    *zap.Logger
	now    func() time.Time
}

func newHealthServer(port int, checks map[string]func(context.Context) error, log *zap.Logger) *healthServer {
	if port == 0 {
		port = 8080
	}
	h := &healthServer{checks: checks, log: log, now: time.Now}
	h.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return h
}

func (h *healthServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/ready", h.handleReady)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// ListenAndServe blocks until Shutdown; a clean shutdown returns nil.
func (h *healthServer) ListenAndServe() error {
	h.log.Info("Health/Metrics server listening", zap.String("addr", h.server.Addr))
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server: %w", err)
	}
	return nil
}

func (h *healthServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *healthServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
	})
}

// handleReady pings every dependency and reports 503 when any is down.
func (h *healthServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, code := "ready", http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	h.write(w, code, map[string]interface{}{
		"status":       status,
		"dependencies": deps,
		"time":         h.now().Format(time.RFC3339),
	})
}

func (h *healthServer) write(w http.ResponseWriter, code int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to write health response", zap.Error(err))
	}
}
