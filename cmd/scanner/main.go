package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/nstojkov/betsnipe/internal/api"
	"github.com/nstojkov/betsnipe/internal/arb"
	"github.com/nstojkov/betsnipe/internal/pkg/config"
	"github.com/nstojkov/betsnipe/internal/pkg/enums"
	"github.com/nstojkov/betsnipe/internal/pkg/health"
	"github.com/nstojkov/betsnipe/internal/pkg/logging"
	"github.com/nstojkov/betsnipe/internal/pkg/metrics"
	"github.com/nstojkov/betsnipe/internal/pkg/publish"
	"github.com/nstojkov/betsnipe/internal/pkg/storage"
	"github.com/nstojkov/betsnipe/internal/resolver"
	"github.com/nstojkov/betsnipe/internal/scraper"

	_ "github.com/nstojkov/betsnipe/internal/scraper/providers/all"
)

const defaultConfigPath = "configs/local.yaml"

type flags struct {
	configPath string
	providers  string
	sport      string
	runFor     time.Duration
	cycles     int
	once       bool
}

func main() {
	if err := run(); err != nil {
		slog.Error("scanner: fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	fl := parseFlags()

	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if _, err := logging.Setup(cfg.LogLevel, cfg.LogFile, "scanner"); err != nil {
		slog.Warn("scanner: logging setup failed, using default logger", "error", err)
	}

	ctx, cancel := createContext(fl.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	store, err := storage.New(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var only []string
	if fl.providers != "" {
		only = strings.Split(fl.providers, ",")
	}
	provs, err := scraper.SelectProviders(cfg, only)
	if err != nil {
		return err
	}

	var sports []enums.Sport
	if fl.sport != "" {
		s, err := parseSport(fl.sport)
		if err != nil {
			return err
		}
		sports = []enums.Sport{s}
	}

	pm := metrics.NewPipelineMetrics()
	pub := publish.NewPublisher(256, pm)
	defer pub.Close()

	providerNames := make(map[int]string, len(provs))
	names := make([]string, len(provs))
	for i, p := range provs {
		providerNames[p.ID()] = p.Name()
		names[i] = p.Name()
	}
	// Odds rows reference the provider table, so the run's adapters must be
	// registered before the first cycle writes.
	if err := store.SeedProviders(ctx, providerNames); err != nil {
		return fmt.Errorf("seed providers: %w", err)
	}
	startSinks(ctx, cfg, pub, providerNames)

	engine := scraper.New(scraper.Deps{
		Config:    cfg,
		Store:     store,
		Resolver:  resolver.New(store, cfg.MatchSimilarityThreshold),
		Detector:  arb.New(cfg.MinProfitPercentage),
		Publisher: pub,
		Metrics:   pm,
		Providers: provs,
		Sports:    sports,
	})
	defer engine.Close()

	stats := func() any {
		return map[string]any{
			"engine": engine.Stats(),
			"drops":  pub.Drops(),
		}
	}
	health.Run(ctx, cfg.HealthAddr, "scanner", cfg.ReadHeaderTimeout(), health.Options{
		Providers: names,
		Registry:  pm.Registry(),
		Stats:     stats,
	})

	// The read API rides along so its /api/v1/stats can report live pipeline
	// counters. The standalone api binary covers split deployments.
	apiSrv := api.NewServer(store, cfg.APIAddr, stats)
	go func() {
		if err := apiSrv.Run(ctx); err != nil {
			slog.Error("scanner: api server failed", "error", err)
		}
	}()

	if fl.once {
		fl.cycles = 1
	}
	if fl.cycles > 0 {
		runCycles(ctx, engine, cfg.ScrapeInterval(), fl.cycles)
		return nil
	}
	return engine.Run(ctx)
}

// runCycles drives a bounded number of cycles at the production cadence.
func runCycles(ctx context.Context, engine *scraper.Engine, interval time.Duration, n int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < n; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
		engine.RunOnce(ctx)
	}
}

// parseSport accepts an alias ("tennis") or a numeric id.
func parseSport(raw string) (enums.Sport, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if s, ok := enums.ParseSport(raw); ok {
		return s, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if s := enums.Sport(n); s.IsValid() {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown sport %q", raw)
}

func parseFlags() flags {
	var fl flags
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}
	flag.StringVar(&fl.configPath, "config", defaultConfig, "Path to config file")
	flag.StringVar(&fl.providers, "providers", "", "Comma-separated provider subset (default: config selection)")
	flag.StringVar(&fl.sport, "sport", "", "Restrict scraping to one sport (alias or id)")
	flag.DurationVar(&fl.runFor, "run-for", 0, "Auto-stop after duration. 0 = run until SIGINT/SIGTERM")
	flag.IntVar(&fl.cycles, "cycles", 0, "Run N cycles and exit. 0 = run until stopped")
	flag.BoolVar(&fl.once, "once", false, "Run a single scrape cycle and exit")
	flag.Parse()
	return fl
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("scanner: received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			close(sigCh)
		}
	}()
}

func startSinks(ctx context.Context, cfg *config.Config, pub *publish.Publisher, providerNames map[int]string) {
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := publish.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.ChatID, providerNames, pub)
		if err != nil {
			slog.Warn("scanner: telegram sink disabled", "error", err)
		} else {
			go tg.Run(ctx)
		}
	}
	if cfg.Redis.Addr != "" {
		rs, err := publish.NewRedisSink(cfg.Redis, pub)
		if err != nil {
			slog.Warn("scanner: redis sink disabled", "error", err)
		} else {
			go func() {
				defer rs.Close()
				rs.Run(ctx)
			}()
		}
	}
	if len(cfg.Kafka.Brokers) > 0 {
		ks := publish.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, pub)
		go func() {
			defer ks.Close()
			ks.Run(ctx)
		}()
	}
}
