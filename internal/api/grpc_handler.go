package api

import (
	"context"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the name reported through the gRPC health protocol.
const ServiceName = "commerce.v1.CommerceService"

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthReporter keeps the gRPC health status in step with the database.
// The status is refreshed whenever it is asked for, over HTTP or gRPC.
type HealthReporter struct {
	health *health.Server
	db     Pinger
}

// NewHealthReporter creates a HealthReporter. Until the first check every
// service reports NOT_SERVING.
func NewHealthReporter(db Pinger) *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{health: hs, db: db}
}

// Check pings the database, records the result and returns whether it is reachable.
func (h *HealthReporter) Check(ctx context.Context) bool {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	err := h.db.Ping(ctx)
	if err != nil {
		log.Printf("WARN: Health check DB ping failed: %v", err)
		st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(ServiceName, st)
	return err == nil
}

// Shutdown marks every service NOT_SERVING for good.
func (h *HealthReporter) Shutdown() {
	h.health.Shutdown()
}

// Register attaches the health service and server reflection to s.
func (h *HealthReporter) Register(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.health)
	reflection.Register(s)
}

// UnaryInterceptor logs every unary call and refreshes the health status
// before a health Check is answered.
func (h *HealthReporter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		if info.FullMethod == healthCheckMethod {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			h.Check(pingCtx)
			cancel()
		}
		resp, err := handler(ctx, req)
		log.Printf("INFO: gRPC %s code=%s duration=%s", info.FullMethod, status.Code(err), time.Since(start))
		return resp, err
	}
}
