package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sablehq/triagedesk/internal/adapter/gemini"
	tdhttp "github.com/sablehq/triagedesk/internal/adapter/http"
	"github.com/sablehq/triagedesk/internal/adapter/kbindex"
	tdnats "github.com/sablehq/triagedesk/internal/adapter/nats"
	"github.com/sablehq/triagedesk/internal/adapter/natskv"
	tdotel "github.com/sablehq/triagedesk/internal/adapter/otel"
	"github.com/sablehq/triagedesk/internal/adapter/postgres"
	"github.com/sablehq/triagedesk/internal/adapter/ristretto"
	"github.com/sablehq/triagedesk/internal/adapter/tiered"
	"github.com/sablehq/triagedesk/internal/adapter/ws"
	"github.com/sablehq/triagedesk/internal/config"
	"github.com/sablehq/triagedesk/internal/logger"
	"github.com/sablehq/triagedesk/internal/port/genai"
	"github.com/sablehq/triagedesk/internal/resilience"
	"github.com/sablehq/triagedesk/internal/service"
)

func main() {
	demoMode := flag.Bool("demo", false, "process sample tickets without external infrastructure and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	if *demoMode {
		if err := runDemo(cfg, log); err != nil {
			slog.Error("demo failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, log); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"model", cfg.Gemini.Model,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	shutdownTracer, err := tdotel.InitTracer(ctx, cfg.Logging.Service, cfg.Otel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	// PostgreSQL
	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	// NATS
	queue, err := tdnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// Knowledge base with a tiered findings cache: in-process L1 over a
	// shared NATS KV bucket.
	local, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer local.Close()

	kv, err := queue.KeyValue(ctx, "TRIAGEDESK_KB", cfg.Cache.FindingTTL)
	if err != nil {
		return fmt.Errorf("kv bucket: %w", err)
	}
	findingsCache := tiered.New(local, natskv.New(kv), cfg.Cache.FindingTTL)

	search, err := kbindex.Default()
	if err != nil {
		return fmt.Errorf("knowledge base: %w", err)
	}
	search.SetCache(findingsCache, cfg.Cache.FindingTTL)

	// Remote generator; a missing API key degrades to fallback-only mode.
	client, breaker, err := newGenerator(cfg)
	if err != nil {
		return err
	}

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	triage := newTriageService(cfg, store, client, search, log, queue, hub)

	// --- HTTP ---
	handlers := &tdhttp.Handlers{
		Triage:           triage,
		Breaker:          breaker,
		GeneratorEnabled: client != nil,
	}
	if client != nil {
		handlers.GeneratorModel = client.Model()
	}

	r := chi.NewRouter()

	r.Use(tdhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(tdhttp.RequestID)
	r.Use(tdhttp.Logger)
	if cfg.Otel.Enabled {
		r.Use(tdotel.HTTPMiddleware(cfg.Logging.Service))
	}
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	tdhttp.MountRoutes(r, handlers, hub)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// newGenerator builds the Gemini client with its circuit breaker. A missing
// API key returns a nil client, which the pipeline treats as fallback-only
// mode; any other construction error is fatal.
func newGenerator(cfg *config.Config) (*gemini.Client, *resilience.Breaker, error) {
	client, err := gemini.NewClient(cfg.Gemini)
	if err != nil {
		if errors.Is(err, gemini.ErrNoAPIKey) {
			slog.Warn("GEMINI_API_KEY not set, responses use local fallback")
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("gemini client: %w", err)
	}

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	client.SetBreaker(breaker)
	return client, breaker, nil
}

// newTriageService wires the pipeline with its event and notification sinks.
func newTriageService(cfg *config.Config, store *postgres.Store, client *gemini.Client, search *kbindex.Index, log *slog.Logger, queue *tdnats.Queue, hub *ws.Hub) *service.TriageService {
	// A nil *gemini.Client must become a nil interface, not a typed nil.
	var gen genai.TextGenerator
	if client != nil {
		gen = client
	}

	triage := service.NewTriageService(store, gen, search, log)
	triage.SetEvents(queue)
	triage.SetNotifier(hub)
	triage.SetMaxParallel(cfg.Pipeline.MaxParallel)
	return triage
}
