package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/skilltree/internal/cache"
	"github.com/abhisek/skilltree/internal/clock"
	"github.com/abhisek/skilltree/internal/config"
	"github.com/abhisek/skilltree/internal/engine"
	"github.com/abhisek/skilltree/internal/identity"
	"github.com/abhisek/skilltree/internal/logger"
	"github.com/abhisek/skilltree/internal/metrics"
	"github.com/abhisek/skilltree/internal/store"
	"github.com/abhisek/skilltree/internal/telemetry"
)

// env is everything a command needs, built from flags and config.
type env struct {
	cfg     config.Config
	log     *logger.Logger
	metrics *metrics.Metrics
	store   *store.Store
	engine  *engine.Engine
	clock   clock.Clock

	closers []func(context.Context) error
}

// loadConfig reads config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if mode, _ := cmd.Flags().GetString("log-mode"); mode != "" {
		cfg.Log.Mode = mode
	}
	if cmd.Flags().Changed("trace") {
		cfg.Telemetry.Enabled, _ = cmd.Flags().GetBool("trace")
	}
	return cfg, cfg.Validate()
}

// openEnv loads config, opens the store and assembles the engine. The
// caller must Close it.
func openEnv(cmd *cobra.Command) (*env, error) {
	ctx := cmd.Context()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	e := &env{cfg: cfg, log: log, metrics: metrics.New(), clock: clock.System{}}

	shutdown, err := telemetry.Init(ctx, log, cfg.Telemetry, version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	e.closers = append(e.closers, shutdown)

	dbPath, err := resolveDBPath(cmd, cfg.DBPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	st.SetMetrics(e.metrics)
	e.store = st
	e.closers = append(e.closers, func(context.Context) error { return st.Close() })

	mc, err := e.openCache(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.engine = engine.New(st, engine.Options{
		Config:    cfg.Engine,
		Progress:  cfg.Progress,
		Gamify:    cfg.Gamify,
		Policy:    cfg.Calibration,
		Rewards:   cfg.Rewards,
		Recommend: cfg.Recommend,
		Clock:     e.clock,
		Cache:     mc,
		Log:       log,
		Metrics:   e.metrics,
	})
	log.Debug("environment ready", "db", dbPath, "redis", cfg.Cache.RedisAddr != "")
	return e, nil
}

// openCache uses Redis when an address is configured and an in-process
// cache otherwise. An unreachable Redis degrades to the in-process cache.
func (e *env) openCache(ctx context.Context) (cache.MetricsCache, error) {
	cc := e.cfg.Cache
	if cc.RedisAddr == "" {
		return cache.NewMemory(cc.TTL, e.clock), nil
	}
	rdb, err := cache.DialRedis(ctx, cc)
	if err != nil {
		e.log.Warn("redis unavailable, using in-process metrics cache", "addr", cc.RedisAddr, "error", err)
		return cache.NewMemory(cc.TTL, e.clock), nil
	}
	e.closers = append(e.closers, func(context.Context) error { return rdb.Close() })
	return cache.NewRedis(rdb, cc.TTL), nil
}

// principal verifies --token when given. Without a token it returns
// fallback, or an error when fallback is nil.
func (e *env) principal(cmd *cobra.Command, fallback *identity.Principal) (identity.Principal, error) {
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv("SKILLTREE_TOKEN")
	}
	if token == "" {
		if fallback == nil {
			return identity.Principal{}, fmt.Errorf("%s requires --token", cmd.CommandPath())
		}
		return *fallback, nil
	}
	v, err := identity.NewVerifier(e.cfg.Auth, nil)
	if err != nil {
		return identity.Principal{}, err
	}
	return v.Verify(token)
}

// writeMetrics exports the metrics textfile when --metrics-file is set.
func (e *env) writeMetrics(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("metrics-file")
	if path == "" {
		return nil
	}
	return e.metrics.WriteTextfile(path)
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	ctx := context.Background()
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			e.log.Warn("shutdown", "error", err)
		}
	}
	e.log.Sync()
}
