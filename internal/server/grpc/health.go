// Package grpcserver runs the gRPC side listener used by orchestrators for
// health probing.
package grpcserver

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service key reported for the HTTP API.
const ServiceName = "nutrikeeper.api"

// Pinger checks a dependency, typically the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health owns the gRPC server and the status it reports.
type Health struct {
	Server *grpc.Server
	hs     *health.Server
	log    *zap.Logger
}

// NewHealth builds a gRPC server with the standard health service
// registered. Reflection is enabled in dev mode only.
func NewHealth(log *zap.Logger, dev bool) *Health {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoverChecks(log),
			LogChecks(log),
		),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if dev {
		reflection.Register(s)
	}
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Health{Server: s, hs: hs, log: log}
}

// SetServing flips both the overall and the API status.
func (h *Health) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
}

// Watch pings p every interval and mirrors the result into the health
// status until ctx is done.
func (h *Health) Watch(ctx context.Context, p Pinger, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := p.Ping(pctx)
		if err != nil && ctx.Err() == nil {
			h.log.Warn("health ping failed", zap.Error(err))
		}
		h.SetServing(err == nil)
	}
	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}

// Shutdown marks everything not serving and stops the server, forcing it
// after timeout.
func (h *Health) Shutdown(timeout time.Duration) {
	h.hs.Shutdown()
	done := make(chan struct{})
	go func() {
		h.Server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.Server.Stop()
	}
}
