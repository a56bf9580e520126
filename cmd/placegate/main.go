package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roamspot/placegate/internal/blob"
	blobFile "github.com/roamspot/placegate/internal/blob/file"
	blobRedis "github.com/roamspot/placegate/internal/blob/redis"
	"github.com/roamspot/placegate/internal/cache"
	"github.com/roamspot/placegate/internal/config"
	"github.com/roamspot/placegate/internal/db"
	dbRedis "github.com/roamspot/placegate/internal/db/redis"
	"github.com/roamspot/placegate/internal/ledger"
	logpkg "github.com/roamspot/placegate/internal/logger"
	"github.com/roamspot/placegate/internal/memo"
	"github.com/roamspot/placegate/internal/metrics"
	"github.com/roamspot/placegate/internal/statekeeper"
	chiTransport "github.com/roamspot/placegate/internal/transport/chi"
	"github.com/roamspot/placegate/internal/transport/googleplaces"
	healthuc "github.com/roamspot/placegate/internal/usecase/health"
	lookupuc "github.com/roamspot/placegate/internal/usecase/lookup"
	usageuc "github.com/roamspot/placegate/internal/usecase/usage"
	"github.com/roamspot/placegate/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting placegate API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("persistence_medium", cfg.Persistence.Medium),
		zap.Float64("daily_budget_usd", cfg.Budget.DailyBudgetUSD),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterPlacesMetrics()

	// Cache store
	cacheStore := cache.New(cache.Config{
		MaxSize:         cfg.Cache.MaxSize,
		DefaultTTL:      time.Duration(cfg.Cache.DefaultTTLSec) * time.Second,
		CleanupInterval: time.Duration(cfg.Cache.CleanupIntervalSec) * time.Second,
		SnapshotLimit:   cfg.Cache.SnapshotLimit,
	}, logger)

	// Usage ledger
	usageLedger, err := ledger.New(ledger.Config{
		DailyBudget: cfg.Budget.DailyBudgetUSD,
		CostPerUnit: cfg.CostOverrides(),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create usage ledger", zap.Error(err))
	}

	// Persistence backend per medium
	ctx := context.Background()
	var (
		cacheBlob, ledgerBlob blob.Store
		store                 db.Store
	)
	switch cfg.Persistence.Medium {
	case "file":
		cacheBlob = blobFile.New(filepath.Join(cfg.Persistence.Dir, "cache.json"))
		ledgerBlob = blobFile.New(filepath.Join(cfg.Persistence.Dir, "ledger.json"))
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Persistence.RedisAddrs,
			Password: cfg.Persistence.RedisPassword,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()
		if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis")
		cacheBlob = blobRedis.New(store, cfg.Persistence.KeyPrefix+"cache", 0)
		// Ledger state is only useful within the day it was taken.
		ledgerBlob = blobRedis.New(store, cfg.Persistence.KeyPrefix+"ledger", 48*time.Hour)
	case "none":
		// In-memory only
	}

	// State keeper: restore at startup, save periodically and on shutdown.
	keeper := statekeeper.New(
		cacheStore, usageLedger, cacheBlob, ledgerBlob,
		time.Duration(cfg.Persistence.SaveIntervalSec)*time.Second, logger,
	)
	keeper.Restore(ctx)
	keeper.Start()
	usageLedger.WithSaver(keeper)

	// Places provider
	provider, err := googleplaces.New(googleplaces.Config{
		APIKey: cfg.Provider.APIKey,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("Failed to create places provider", zap.Error(err))
	}

	// Memoizer shared by all lookup categories
	memoizer := memo.New(cacheStore, usageLedger, metrics.LookupCacheTotal, logger)
	if cfg.Budget.SingleFlight {
		memoizer = memoizer.WithSingleflight()
	}

	// Use case services
	lookupSvc := lookupuc.New(memoizer, provider, lookupuc.Config{})
	usageSvc := usageuc.New(usageLedger, usageLedger)

	var pinger healthuc.StorePinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, nil)

	// Create chi server
	server := chiTransport.NewServer(lookupSvc, usageSvc, healthSvc, cacheStore, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// Final snapshot save, then stop the cache janitor.
	keeper.Stop(shutdownCtx)
	cacheStore.Stop()

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
