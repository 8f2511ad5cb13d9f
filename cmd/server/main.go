package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/graphql"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/auth"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

const healthInterval = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "console" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	cache, closeCache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	resolver := graphql.NewResolver(graphql.Services{
		Catalog:   service.NewCatalogService(store),
		Carts:     service.NewCartService(store, cache, cfg.Pricing, logger),
		Orders:    service.NewOrderService(store, cache, cfg.Pricing, cfg.PaymentMethods, logger),
		Users:     service.NewUserService(store, auth.NewBcryptHasher(0), tokens, logger),
		Wishlists: service.NewWishlistService(store),
		Reviews:   service.NewReviewService(store, logger),
	}, logger)
	schema, err := graphql.NewSchema(resolver)
	if err != nil {
		return err
	}

	probes := []handler.Probe{
		{Name: "storage", Pinger: store},
		{Name: "cache", Pinger: cache},
	}

	// gRPC health
	grpcHandler := handler.NewGRPCHandler(probes, logger)
	grpcServer := handler.NewGRPCServer(grpcHandler, logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go grpcHandler.Watch(ctx, healthInterval)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP GraphQL
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(schema, tokens, probes, logger).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	grpcHandler.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (port.Store, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on exit")
		return storage.NewMemoryAdapter(), func() {}, nil
	}

	db, err := storage.OpenMySQL(ctx, cfg.MySQLDSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
	if err != nil {
		return nil, nil, err
	}
	adapter := storage.NewMySQLAdapter(db)
	if err := adapter.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("connected to mysql")
	return adapter, func() { db.Close() }, nil
}

// openCache falls back to an in-process cache only with in-memory storage.
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (port.CacheRepository, func(), error) {
	if cfg.StorageDriver == config.StorageMemory && cfg.RedisAddr == "" {
		return storage.NewMemoryCache(cfg.IdempotencyTTL), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		if cfg.StorageDriver == config.StorageMemory {
			logger.Warn("redis unreachable, using in-memory idempotency cache", zap.Error(err))
			return storage.NewMemoryCache(cfg.IdempotencyTTL), func() {}, nil
		}
		return nil, nil, err
	}
	logger.Info("connected to redis")
	return storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL), func() { rdb.Close() }, nil
}
