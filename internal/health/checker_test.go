package health

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func ok(context.Context) error { return nil }

func TestCheck_AllHealthy(t *testing.T) {
	c := NewChecker(time.Second).Add("mongo", PingFunc(ok)).Add("redis", PingFunc(ok))

	st := c.Check(context.Background())
	assert.True(t, st.Healthy())
	assert.Equal(t, map[string]string{"mongo": "ok", "redis": "ok"}, st.Checks)
}

func TestCheck_Degraded(t *testing.T) {
	c := NewChecker(time.Second).
		Add("mongo", PingFunc(ok)).
		Add("receipts", PingFunc(func(context.Context) error { return errors.New("connection refused") }))

	st := c.Check(context.Background())
	assert.False(t, st.Healthy())
	assert.Equal(t, "degraded", st.Status)
	assert.Equal(t, "unavailable", st.Checks["receipts"])
	assert.Equal(t, "ok", st.Checks["mongo"])
}

func TestCheck_Timeout(t *testing.T) {
	c := NewChecker(20 * time.Millisecond).Add("slow", PingFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	st := c.Check(context.Background())
	assert.False(t, st.Healthy())
}

func TestWatch_PublishesGRPCStatus(t *testing.T) {
	c := NewChecker(time.Second).Add("dep", PingFunc(ok))

	srv, hs := NewGRPCServer()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go c.Watch(ctx, hs, 20*time.Millisecond)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	client := grpc_health_v1.NewHealthClient(conn)

	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
		return err == nil && resp.Status == grpc_health_v1.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}
