// Command golink-loadtest hammers a session store with concurrent saves and
// deletes and verifies that the final session set is the last-write-wins
// reduction of the operations.
//
//	go run ./cmd/golink-loadtest --backend redis --workers 64 --sessions 5000
//
// The redis backend uses --redis-addr, then REDIS_ADDR, then an in-process
// miniredis.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goLink "github.com/MrEthical07/goLink"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	backend    string
	layout     string
	redisAddr  string
	sqlitePath string
	workers    int
	sessions   int
	url        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "golink-loadtest",
		Short:         "Concurrent save/delete load test for the session store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (flags override it)")
	f.StringVar(&opts.backend, "backend", "memory", "storage backend: memory, redis or sqlite")
	f.StringVar(&opts.layout, "layout", "unified", "storage layout: unified or separated")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.StringVar(&opts.sqlitePath, "sqlite-path", "", "sqlite file; if empty, a temp file is used")
	f.IntVar(&opts.workers, "workers", 32, "number of concurrent workers")
	f.IntVar(&opts.sessions, "sessions", 2000, "number of sessions to save")
	f.StringVar(&opts.url, "url", "https://bridge.example.org", "owning server URL for saved sessions")
	return root
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.workers <= 0 || opts.sessions <= 0 {
		return fmt.Errorf("workers and sessions must be > 0")
	}

	cfg := goLink.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := goLink.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	backend, err := goLink.ParseBackend(opts.backend)
	if err != nil {
		return err
	}
	layout, err := goLink.ParseLayout(opts.layout)
	if err != nil {
		return err
	}
	cfg.Storage.Backend = backend
	cfg.Storage.Layout = layout
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	cleanup, err := resolveBackend(&cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := goLink.New().WithConfig(cfg).Build()
	if err != nil {
		return err
	}
	defer store.Close()

	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	updates, err := store.ObserveSessions(feedCtx)
	if err != nil {
		return err
	}
	var received atomic.Int64
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		for range updates {
			received.Add(1)
		}
	}()

	ids := make([]string, opts.sessions)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	fmt.Printf("backend=%s layout=%s workers=%d sessions=%d\n", backend, layout, opts.workers, opts.sessions)

	saveStats := runPhase(opts.workers, len(ids), func(i int) error {
		return store.Save(ctx, ids[i], "secret-"+ids[i], goLink.WithURL(opts.url), goLink.WithVersion("1"))
	})
	deleteStats := runPhase(opts.workers, len(ids)/2, func(i int) error {
		return store.Delete(ctx, ids[i*2], opts.url)
	})

	want := make([]string, 0, len(ids)/2+1)
	for i := 1; i < len(ids); i += 2 {
		want = append(want, ids[i])
	}
	if len(ids)%2 == 1 {
		want = append(want, ids[len(ids)-1])
	}

	got, err := store.GetSessions(ctx, opts.url)
	if err != nil {
		return err
	}
	gotIDs := make([]string, 0, len(got))
	for _, s := range got {
		gotIDs = append(gotIDs, s.ID)
	}
	slices.Sort(gotIDs)
	slices.Sort(want)

	stopFeed()
	<-feedDone

	fmt.Println("---- results ----")
	printStats("save", saveStats)
	printStats("delete", deleteStats)
	snap := store.MetricsSnapshot()
	fmt.Printf("feed: received=%d pushed=%d deduplicated=%d\n",
		received.Load(),
		snap.Counters[goLink.MetricFeedPush],
		snap.Counters[goLink.MetricFeedDeduplicated],
	)

	if !slices.Equal(gotIDs, want) {
		return fmt.Errorf("final session set mismatch: got %d sessions, want %d", len(gotIDs), len(want))
	}
	fmt.Printf("verified: %d sessions remain\n", len(gotIDs))
	return nil
}

func resolveBackend(cfg *goLink.Config, opts options) (func(), error) {
	switch cfg.Storage.Backend {
	case goLink.BackendRedis:
		addr := opts.redisAddr
		if addr == "" {
			addr = os.Getenv("REDIS_ADDR")
		}
		if addr != "" {
			cfg.Storage.RedisAddr = addr
			fmt.Printf("using redis at %s\n", addr)
			return func() {}, nil
		}
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		cfg.Storage.RedisAddr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return mr.Close, nil
	case goLink.BackendSQLite:
		if opts.sqlitePath != "" {
			cfg.Storage.SQLitePath = opts.sqlitePath
			return func() {}, nil
		}
		dir, err := os.MkdirTemp("", "golink-loadtest-")
		if err != nil {
			return nil, err
		}
		cfg.Storage.SQLitePath = filepath.Join(dir, "sessions.db")
		return func() { _ = os.RemoveAll(dir) }, nil
	default:
		return func() {}, nil
	}
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func runPhase(workers, ops int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
