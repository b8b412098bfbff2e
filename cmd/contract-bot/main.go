// cmd/contract-bot/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contract-bot/internal/audit"
	"contract-bot/internal/backend"
	"contract-bot/internal/bot"
	"contract-bot/internal/common/config"
	"contract-bot/internal/common/database"
	"contract-bot/internal/common/logger"
	"contract-bot/internal/common/observability"
	"contract-bot/internal/telegram"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})
	zapLog.Info("Starting contract bot...", zap.String("mode", cfg.Telegram.Mode), zap.String("version", cfg.App.Version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	// --- Backend client ---
	api, err := backend.New(backend.FromAppConfig(cfg), log, backend.WithObservability(obs))
	if err != nil {
		zapLog.Fatal("backend client init failed", zap.Error(err))
	}

	// --- Pending edit state ---
	var pending bot.PendingStore = bot.NewMemoryPendingStore()
	if cfg.State.Backend == "redis" {
		rdb := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		pending = bot.NewRedisPendingStore(rdb.Client, cfg.State.Prefix)
		zapLog.Info("Redis connected successfully")
	}

	// --- Audit trail ---
	var recorder audit.Recorder = audit.NopRecorder{}
	if cfg.Audit.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pgRecorder := audit.NewPostgresRecorder(pg.DB, log)
		if err := pgRecorder.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("audit schema setup failed", zap.Error(err))
		}
		recorder = pgRecorder
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Telegram ---
	tg, err := telegram.New(cfg.Telegram.BotToken, log,
		telegram.WithDebug(cfg.Logging.Level == "debug"),
		telegram.WithPollTimeout(cfg.Telegram.PollTimeout))
	if err != nil {
		zapLog.Fatal("telegram init failed", zap.Error(err))
	}

	router := bot.NewRouter(api, tg, pending, bot.ConfigFromApp(cfg), log, bot.WithAudit(recorder))
	dispatcher := bot.NewDispatcher(router, cfg.Router.Workers, cfg.Router.QueueSize, log)
	// Handlers run on their own context so queued events still complete while draining.
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	var ready atomic.Bool
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bot.NewSweeper(router, dispatcher, config.GetDuration(cfg.Router.SweepInterval), log).Run(gctx)
		return nil
	})

	if cfg.Cache.CleanupInterval > 0 {
		g.Go(func() error {
			api.Cache().RunCleanup(gctx, config.GetDuration(cfg.Cache.CleanupInterval))
			return nil
		})
	}

	// --- Health, Metrics & Notification Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "starting"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/notify/contract", bot.NewNotifyHandler(router, cfg.Backend.APIKey, log))
	serve(gctx, g, &http.Server{Addr: cfg.Metrics.Address, Handler: mux, ReadHeaderTimeout: 10 * time.Second}, zapLog, "Health/Metrics")

	// --- Update delivery ---
	switch cfg.Telegram.Mode {
	case "webhook":
		if err := tg.SetWebhook(ctx, cfg.Telegram.Webhook.URL(), cfg.Telegram.Webhook.SecretToken); err != nil {
			zapLog.Fatal("webhook registration failed", zap.Error(err))
		}
		hook := telegram.NewWebhookHandler(dispatcher, cfg.Telegram.Webhook.Path, cfg.Telegram.Webhook.SecretToken, log)
		addr := ":" + strconv.Itoa(cfg.Telegram.Webhook.Port)
		serve(gctx, g, &http.Server{Addr: addr, Handler: hook, ReadHeaderTimeout: 10 * time.Second}, zapLog, "Webhook")
	default:
		if err := tg.DeleteWebhook(ctx); err != nil {
			zapLog.Warn("could not clear webhook before polling", zap.Error(err))
		}
		g.Go(func() error {
			return telegram.NewPoller(tg, dispatcher, log).Run(gctx)
		})
	}

	ready.Store(true)
	zapLog.Info("Contract bot is running", zap.String("bot", tg.Username()))

	// --- Graceful Shutdown ---
	if err := g.Wait(); err != nil {
		zapLog.Error("bot stopped with error", zap.Error(err))
	}
	ready.Store(false)
	zapLog.Info("Shutdown signal received, draining queued events...")
	dispatcher.Stop()
	zapLog.Info("Contract bot stopped")
}

// serve runs srv inside g and shuts it down when ctx is cancelled.
func serve(ctx context.Context, g *errgroup.Group, srv *http.Server, log *zap.Logger, name string) {
	g.Go(func() error {
		log.Info(name+" server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
