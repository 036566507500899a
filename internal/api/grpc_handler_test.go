package api

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

// switchPinger fails while err is set.
type switchPinger struct{ err error }

func (p *switchPinger) Ping(context.Context) error { return p.err }

func startHealthServer(t *testing.T, reporter *HealthReporter) grpc_health_v1.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	server := grpc.NewServer(grpc.ChainUnaryInterceptor(reporter.UnaryInterceptor()))
	reporter.Register(server)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return grpc_health_v1.NewHealthClient(conn)
}

func TestHealthReporter_StartsNotServing(t *testing.T) {
	reporter := NewHealthReporter(&switchPinger{})
	resp, err := reporter.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthReporter_CheckFollowsDatabase(t *testing.T) {
	pinger := &switchPinger{}
	client := startHealthServer(t, NewHealthReporter(pinger))

	resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	pinger.err = errors.New("connection refused")
	resp, err = client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthReporter_Shutdown(t *testing.T) {
	reporter := NewHealthReporter(&switchPinger{})
	assert.True(t, reporter.Check(context.Background()))

	reporter.Shutdown()
	resp, err := reporter.health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}
