// Package testutil starts throwaway Postgres and Redis containers for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/panelevent/backend/pkg/database"
)

const containerTTL = 120 // seconds

func newPool(t *testing.T) *dockertest.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in -short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 60 * time.Second
	return pool
}

func run(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()
	resource, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("start %s: %v", opts.Repository, err)
	}
	_ = resource.Expire(containerTTL)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	return resource
}

// Redis starts a Redis container and returns a connected client.
func Redis(t *testing.T) *redis.Client {
	t.Helper()
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"})

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	if err := pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}); err != nil {
		t.Fatalf("redis not ready: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// Postgres starts a Postgres container, applies migrations and returns a pool.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool := newPool(t)
	resource := run(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=panelevent",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=panelevent_test",
		},
	})
	dsn := fmt.Sprintf("postgres://panelevent:secret@%s/panelevent_test?sslmode=disable", resource.GetHostPort("5432/tcp"))

	ctx := context.Background()
	var db *pgxpool.Pool
	if err := pool.Retry(func() error {
		var err error
		db, err = database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 20}, zap.NewNop())
		return err
	}); err != nil {
		t.Fatalf("postgres not ready: %v", err)
	}
	t.Cleanup(db.Close)

	if err := database.Migrate(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
