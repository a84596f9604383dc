//go:build integration
// +build integration

package test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	goLink "github.com/MrEthical07/goLink"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const waitTimeout = 3 * time.Second

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns miniredis plus any real Redis named by REDIS_ADDR,
// REDIS_CLUSTER_ADDRS or REDIS_SENTINEL_ADDRS.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				pingOrSkip(t, rdb)
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				pingOrSkip(t, rdb)
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	if addrs := os.Getenv("REDIS_SENTINEL_ADDRS"); addrs != "" {
		master := os.Getenv("REDIS_SENTINEL_MASTER")
		if master == "" {
			master = "mymaster"
		}
		modes = append(modes, redisMode{
			name: "sentinel",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewFailoverClient(&redis.FailoverOptions{
					MasterName:    master,
					SentinelAddrs: splitAddrs(addrs),
				})
				pingOrSkip(t, rdb)
				rdb.FlushDB(context.Background())
				return rdb, func() { rdb.FlushDB(context.Background()); _ = rdb.Close() }
			},
		})
	}

	return modes
}

func pingOrSkip(t *testing.T, rdb redis.UniversalClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("cannot connect to Redis: %v", err)
	}
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

// newIntegrationStore builds a store over rdb with a per-test key prefix.
func newIntegrationStore(t *testing.T, rdb redis.UniversalClient, layout goLink.Layout) *goLink.Store {
	t.Helper()

	cfg := goLink.DefaultConfig()
	cfg.Storage.Layout = layout
	cfg.Storage.KeyPrefix = "it." + strings.ReplaceAll(t.Name(), "/", ".") + "."
	cfg.Metrics.Enabled = true

	store, err := goLink.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
