package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCHandler serves grpc.health.v1.Health. The overall service ("") is
// SERVING only while every probe passes; each probe is also reported under
// its own name.
type GRPCHandler struct {
	health *health.Server
	probes []Probe
	logger *zap.Logger
}

func NewGRPCHandler(probes []Probe, logger *zap.Logger) *GRPCHandler {
	h := &GRPCHandler{
		health: health.NewServer(),
		probes: probes,
		logger: logger,
	}
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, p := range probes {
		h.health.SetServingStatus(p.Name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// NewGRPCServer builds a server with request-id and logging interceptors and
// the health service registered.
func NewGRPCServer(h *GRPCHandler, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RequestIDInterceptor(),
		LoggingInterceptor(logger),
	))
	healthpb.RegisterHealthServer(s, h.health)
	return s
}

// Refresh probes every dependency once and publishes the result.
func (h *GRPCHandler) Refresh(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, err := range checkAll(ctx, h.probes) {
		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			status = healthpb.HealthCheckResponse_NOT_SERVING
			overall = status
			h.logger.Warn("health probe failed", zap.String("dependency", name), zap.Error(err))
		}
		h.health.SetServingStatus(name, status)
	}
	h.health.SetServingStatus("", overall)
}

// Watch refreshes on every tick until ctx is done.
func (h *GRPCHandler) Watch(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Shutdown reports NOT_SERVING for everything and ignores later updates.
func (h *GRPCHandler) Shutdown() {
	h.health.Shutdown()
}
