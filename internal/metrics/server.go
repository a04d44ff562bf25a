package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fumble/fumble/internal/stats"
)

// exportInterval is how often Server samples the stats registry into
// the Prometheus gauges registered in metrics.go. Sampling on a fixed
// timer here, rather than once per pipeline batch, keeps gauge writes
// off the driver's hot path.
const exportInterval = time.Second

// Server is the HTTP server exposing the /metrics endpoint, plus a
// /stats endpoint serving the live registry snapshot as JSON for
// debugging without waiting on a Prometheus scrape.
type Server struct {
	addr     string
	path     string
	registry *stats.Registry
	server   *http.Server
	stop     chan struct{}
}

// NewServer creates a metrics server listening on addr, serving
// Prometheus exposition format at path and sampling registry on a
// fixed interval while running.
func NewServer(addr, path string, registry *stats.Registry) *Server {
	if path == "" {
		path = "/metrics"
	}
	return &Server{addr: addr, path: path, registry: registry}
}

// Start launches the server and the registry export loop in the
// background.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.path, promhttp.Handler())
	mux.HandleFunc("/stats", s.serveStats)

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.stop = make(chan struct{})

	slog.Info("starting metrics server", "addr", s.addr, "path", s.path)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	go s.exportLoop()

	return nil
}

// exportLoop mirrors the stats registry onto the Prometheus gauges
// every exportInterval, until Stop closes s.stop.
func (s *Server) exportLoop() {
	ticker := time.NewTicker(exportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			Export(s.registry.Snapshot())
		case <-s.stop:
			return
		}
	}
}

// serveStats writes the current registry snapshot as JSON.
func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.registry.Snapshot()); err != nil {
		slog.Error("failed to encode stats snapshot", "error", err)
	}
}

// Stop gracefully shuts the server and the export loop down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	close(s.stop)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown failed: %w", err)
	}
	return nil
}
