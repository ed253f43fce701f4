package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LogChecks logs every health RPC with the queried service and the
// reported serving status. Answered checks go to debug level, the rest
// (unknown service, failures) to info.
func LogChecks(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		fields := []zap.Field{
			zap.String("rpc", info.FullMethod),
			zap.String("service", queriedService(req)),
			zap.String("status", servingStatus(resp)),
			zap.String("code", code.String()),
			zap.Duration("took", time.Since(start)),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("remote", p.Addr.String()))
		}

		lvl := zap.InfoLevel
		if code == codes.OK {
			lvl = zap.DebugLevel
		}
		log.Log(lvl, "health check", fields...)
		return resp, err
	}
}

// queriedService returns the service name of a health request; "" is the
// whole server.
func queriedService(req any) string {
	if r, ok := req.(interface{ GetService() string }); ok {
		return r.GetService()
	}
	return ""
}

func servingStatus(resp any) string {
	if r, ok := resp.(interface {
		GetStatus() healthpb.HealthCheckResponse_ServingStatus
	}); ok {
		return r.GetStatus().String()
	}
	return ""
}

// RecoverChecks turns a panicking handler into codes.Internal.
func RecoverChecks(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("health handler panic",
					zap.String("rpc", info.FullMethod),
					zap.String("service", queriedService(req)),
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}
