// Package api is the read-only collaborator surface over the store: active
// opportunities, upcoming matches, per-match odds and counters. It never
// writes; the pipeline owns every table.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/models"
)

// Storage is the read surface the API serves.
type Storage interface {
	Ping(ctx context.Context) error
	Stats(ctx context.Context) (*models.StoreStats, error)
	ListArbitrage(ctx context.Context, activeOnly bool, minProfit float64, limit int) ([]models.Arbitrage, error)
	UpcomingMatches(ctx context.Context, sport enums.Sport, horizon time.Duration, limit int) ([]models.Match, error)
	MatchByID(ctx context.Context, id int64) (*models.Match, error)
	OddsForMatch(ctx context.Context, matchID int64) ([]models.CurrentOdds, error)
}

// Server serves the REST API. The pipeline stats callback is optional; the
// standalone api binary runs without one and reports store counters only.
type Server struct {
	store    Storage
	addr     string
	pipeline func() any
}

// NewServer builds a server listening on addr once Run is called.
func NewServer(store Storage, addr string, pipeline func() any) *Server {
	return &Server{store: store, addr: addr, pipeline: pipeline}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/arbitrage", s.handleArbitrage)
		r.Get("/matches", s.handleMatches)
		r.Get("/odds/{matchID}", s.handleOdds)
		r.Get("/stats", s.handleStats)
	})
	return r
}

// Run serves until ctx is cancelled, then drains open requests with a five
// second grace.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return srv.Close()
	}
	slog.Info("api: stopped")
	return nil
}
