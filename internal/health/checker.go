// Package health reports whether the storefront's dependencies are reachable,
// over HTTP and the standard gRPC health service.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger is satisfied by the Mongo repository, the receipts store and a
// small adapter around the Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s Status) Healthy() bool { return s.Status == "ok" }

type Checker struct {
	timeout time.Duration
	deps    map[string]Pinger
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{timeout: timeout, deps: map[string]Pinger{}}
}

func (c *Checker) Add(name string, p Pinger) *Checker {
	c.deps[name] = p
	return c
}

// Check pings every dependency concurrently. Failures are logged and reported
// as "unavailable" without the underlying error.
func (c *Checker) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = Status{Status: "ok", Checks: make(map[string]string, len(c.deps))}
	)
	for name, p := range c.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := p.Ping(ctx); err != nil {
				slog.WarnContext(ctx, "dependency ping failed", "dependency", name, "error", err)
				result = "unavailable"
			}
			mu.Lock()
			defer mu.Unlock()
			out.Checks[name] = result
			if result != "ok" {
				out.Status = "degraded"
			}
		}()
	}
	wg.Wait()
	return out
}

// NewGRPCServer returns a server exposing grpc.health.v1 and reflection, and
// the health server whose status Watch keeps current.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}

// Watch re-checks every interval and publishes the overall status until ctx
// is done.
func (c *Checker) Watch(ctx context.Context, hs *health.Server, interval time.Duration) {
	update := func() {
		st := c.Check(ctx)
		serving := grpc_health_v1.HealthCheckResponse_SERVING
		if !st.Healthy() {
			serving = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			slog.WarnContext(ctx, "health check degraded", "checks", st.Checks)
		}
		hs.SetServingStatus("", serving)
	}

	update()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			update()
		case <-ctx.Done():
			hs.Shutdown()
			return
		}
	}
}
