package grpc

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 3 * time.Second

// Check is a named dependency health check.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

func PostgresCheck(db *sql.DB) Check {
	return Check{Name: "postgres", Fn: db.PingContext}
}

func RedisCheck(client redis.UniversalClient) Check {
	return Check{Name: "redis", Fn: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// UpdateStatus runs every check and publishes SERVING only if all pass.
func (s *GRPCServer) UpdateStatus(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING

	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Fn(cctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "check", c.Name, "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}
