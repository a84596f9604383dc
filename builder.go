package goLink

import (
	"fmt"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/goLink/internal/audit"
	"github.com/MrEthical07/goLink/storage"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a Store. It is single use.
type Builder struct {
	config    Config
	engine    storage.Engine
	redis     redis.UniversalClient
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder over DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithEngine sets the persistence engine. The Store does not close it.
// It takes precedence over WithRedis and Config.Storage.Backend.
func (b *Builder) WithEngine(e storage.Engine) *Builder {
	b.engine = e
	return b
}

// WithRedis selects a RedisEngine over client. The Store does not close the
// client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the logger. Without one, Build creates a logger from
// Config.Logging writing to stderr.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets the audit sink. Audit.Enabled must also be set for
// events to be dispatched.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the mutation latency histogram. It requires
// metrics to be enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, resolves the engine and returns the
// Store. An engine created here from Config.Storage is owned and closed by
// Store.Close.
func (b *Builder) Build() (*Store, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine, owned, err := b.resolveEngine(cfg.Storage)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = NewLogger(cfg.Logging, nil)
	}

	metrics := NewMetrics(cfg.Metrics)
	s := &Store{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
		log:     logger,
		owned:   owned,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, b.auditSink),
	}
	s.layout = newLayout(cfg.Storage.Layout, layoutEnv{
		engine:  engine,
		prefix:  cfg.Storage.KeyPrefix,
		metrics: metrics,
		log:     logger,
	})

	b.built = true

	logger.Debug("session store ready",
		"layout", cfg.Storage.Layout.String(),
		"backend", cfg.Storage.Backend.String(),
		"prefix", cfg.Storage.KeyPrefix,
	)
	return s, nil
}

func (b *Builder) resolveEngine(cfg StorageConfig) (storage.Engine, io.Closer, error) {
	if b.engine != nil {
		return b.engine, nil, nil
	}
	if b.redis != nil {
		return storage.NewRedisEngine(b.redis, cfg.RedisChannelPrefix), nil, nil
	}

	switch cfg.Backend {
	case BackendMemory:
		e := storage.NewMemoryEngine()
		return e, e, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewRedisEngine(client, cfg.RedisChannelPrefix), client, nil
	case BackendSQLite:
		e, err := storage.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
		}
		return e, e, nil
	default:
		return nil, nil, ErrNilEngine
	}
}
