// The api binary serves the read surface on its own, for deployments that
// scale reads separately from the scanner. It reports store counters only;
// live pipeline stats come from the scanner's embedded server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nstojkov/betsnipe/internal/api"
	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/logging"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
)

const defaultConfigPath = "configs/local.yaml"

func main() {
	if err := run(); err != nil {
		slog.Error("api: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	addr := flag.String("addr", "", "Listen address (default: config api_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := logging.Setup(cfg.LogLevel, cfg.LogFile, "api"); err != nil {
		slog.Warn("api: logging setup failed, using default logger", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(ctx, cancel)

	store, err := storage.New(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	listen := cfg.APIAddr
	if *addr != "" {
		listen = *addr
	}
	return api.NewServer(store, listen, nil).Run(ctx)
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("api: received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			close(sigCh)
		}
	}()
}
