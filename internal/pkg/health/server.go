// Package health is the operational sidecar every binary mounts: liveness
// probes, a JSON status snapshot, Prometheus metrics and live pipeline
// counters on a plain mux, separate from the public API port.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options selects the optional surfaces. Nil fields leave their endpoint
// unmounted.
type Options struct {
	// Providers is the enabled bookmaker list reported by /health.
	Providers []string
	// Registry is served on /metrics in the Prometheus text format.
	Registry *prometheus.Registry
	// Stats is called per /stats request and rendered as JSON.
	Stats func() any
}

// Run starts the sidecar and returns immediately. Once ctx is cancelled the
// server drains open requests with a five second grace. A missing read
// header timeout is a deployment error, not something to default around.
func Run(ctx context.Context, addr, service string, readHeaderTimeout time.Duration, opts Options) {
	if readHeaderTimeout <= 0 {
		slog.Error("health: read_header_timeout must be specified in config")
		os.Exit(1)
	}

	started := time.Now()
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlePing)
	mux.HandleFunc("/health", handleHealth(service, started, opts.Providers))
	if opts.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}
	if opts.Stats != nil {
		mux.HandleFunc("/stats", handleStats(opts.Stats))
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("health: listening", "service", service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health: server error", "service", service, "error", err)
		}
	}()
}

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

func handleHealth(service string, started time.Time, providers []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":    "ok",
			"service":   service,
			"uptime":    time.Since(started).Round(time.Second).String(),
			"providers": providers,
		})
	}
}

func handleStats(stats func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stats())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode response: %v", err), http.StatusInternalServerError)
	}
}
