package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ObservabilityServer exposes Prometheus metrics and a health endpoint
// while watch mode is running.
type ObservabilityServer struct {
	addr   string
	app    *App
	server *http.Server
}

func NewObservabilityServer(addr string, app *App) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, app: app}
}

type healthStatus struct {
	Status     string `json:"status"`
	LatestScan string `json:"latest_scan,omitempty"`
}

func (s *ObservabilityServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "up"}
		latest, err := s.app.Store.LatestScanID()
		if err != nil {
			status.Status = "degraded"
		} else {
			status.LatestScan = latest
		}
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
