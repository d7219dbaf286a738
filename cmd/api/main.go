package main

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"classhub.org/internal/auth"
	"classhub.org/internal/cache"
	"classhub.org/internal/config"
	"classhub.org/internal/httpapi"
	"classhub.org/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	logger := obs.Logger()
	defer obs.Sync()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.PGDSN == "" {
		logger.Fatal("CLASSHUB_PG_DSN is required")
	}

	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.PGMaxConns)
	db.SetMaxIdleConns(cfg.PGIdleConns)
	db.SetConnMaxLifetime(cfg.PGConnMaxAge)

	ctx := context.Background()
	registry := cache.DefaultRegistry()

	sessionBackend, err := registry.Open(ctx, cache.Config{
		Kind:          cfg.CacheBackend,
		DefaultTTL:    cfg.SessionTTL,
		MaxEntries:    cfg.CacheMaxEntries,
		RedisAddr:     cfg.RedisAddr,
		RedisDB:       cfg.RedisDB,
		RedisPassword: cfg.RedisPassword,
		RedisPrefix:   cfg.RedisPrefix + "session:",
		RedisPoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		logger.Fatal("open session cache", zap.Error(err))
	}

	// the counter backend's default TTL is the rate window, which also
	// covers the in-process backend's lack of per-entry TTLs
	counterBackend, err := registry.Open(ctx, cache.Config{
		Kind:          cfg.CacheBackend,
		DefaultTTL:    time.Minute,
		MaxEntries:    cfg.CacheMaxEntries,
		RedisAddr:     cfg.RedisAddr,
		RedisDB:       cfg.RedisDB,
		RedisPassword: cfg.RedisPassword,
		RedisPrefix:   cfg.RedisPrefix + "rate:",
		RedisPoolSize: cfg.RedisPoolSize,
	})
	if err != nil {
		logger.Fatal("open rate-limit cache", zap.Error(err))
	}

	codec, err := auth.NewCodec(cfg.TokenSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL))
	if err != nil {
		logger.Fatal("token codec", zap.Error(err))
	}

	store := auth.NewPGStore(db)
	sessions := auth.NewSessionCache(sessionBackend, cfg.SessionTTL)
	counter := auth.NewCounter(counterBackend)
	service := auth.NewService(store, codec, sessions)

	api := httpapi.New(service, store, counter, httpapi.ReadyProbe{DB: db}, version)

	// gRPC health endpoint for infrastructure probes
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("grpc listen", zap.Error(err))
		}
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("starting classhub-api",
		zap.String("addr", cfg.ListenAddr),
		zap.String("version", version))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	grpcSrv.GracefulStop()
	if closer, ok := sessionBackend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if closer, ok := counterBackend.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	_ = db.Close()
	logger.Info("stopped")
}
