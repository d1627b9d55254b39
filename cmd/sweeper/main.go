// The sweeper keeps the store bounded: it finishes started matches,
// deactivates arbitrage whose window closed and prunes history per the
// configured retention. Run it as a daemon or with -once from cron.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/logging"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
)

const defaultConfigPath = "configs/local.yaml"

// finishGrace keeps a started match visible to the resolver long enough for
// late provider rows to land on it instead of spawning a duplicate.
const finishGrace = 4 * time.Hour

type flags struct {
	configPath string
	once       bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("sweeper: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	fl := parseFlags()

	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := logging.Setup(cfg.LogLevel, cfg.LogFile, "sweeper"); err != nil {
		slog.Warn("sweeper: logging setup failed, using default logger", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	store, err := storage.New(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if fl.once {
		return sweep(ctx, cfg, store)
	}

	slog.Info("sweeper: started", "interval", cfg.SweepInterval())
	ticker := time.NewTicker(cfg.SweepInterval())
	defer ticker.Stop()
	for {
		if err := sweep(ctx, cfg, store); err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("sweeper: pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("sweeper: stopped")
			return nil
		case <-ticker.C:
		}
	}
	slog.Info("sweeper: stopped")
	return nil
}

func sweep(ctx context.Context, cfg *config.Config, store *storage.Store) error {
	now := time.Now()

	finished, err := store.MarkFinishedMatches(ctx, now, finishGrace)
	if err != nil {
		return err
	}
	deactivated, err := store.DeactivateStartedArbitrage(ctx, now)
	if err != nil {
		return err
	}
	prunedHistory, err := store.PruneOddsHistory(ctx, now.AddDate(0, 0, -cfg.HistoryRetentionDays))
	if err != nil {
		return err
	}
	prunedMatches, err := store.PruneMatches(ctx, now.AddDate(0, 0, -cfg.MatchRetentionDays))
	if err != nil {
		return err
	}
	prunedArbs, err := store.PruneArbitrage(ctx, now.AddDate(0, 0, -cfg.ArbRetentionDays))
	if err != nil {
		return err
	}

	slog.Info("sweeper: pass done",
		"finished_matches", finished,
		"deactivated_arbs", deactivated,
		"pruned_history", prunedHistory,
		"pruned_matches", prunedMatches,
		"pruned_arbs", prunedArbs,
	)
	return nil
}

func parseFlags() flags {
	var fl flags
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&fl.configPath, "config", defaultConfig, "Path to config file")
	flag.BoolVar(&fl.once, "once", false, "Run a single sweep and exit")
	flag.Parse()
	return fl
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("sweeper: received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			close(sigCh)
		}
	}()
}
