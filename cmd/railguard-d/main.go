package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/railguard-ai/railguard/pkg/api"
	"github.com/railguard-ai/railguard/pkg/cache"
	"github.com/railguard-ai/railguard/pkg/engine"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/reasoning"
	"github.com/railguard-ai/railguard/pkg/specialist"
	"github.com/railguard-ai/railguard/pkg/trace"
)

// generator applies the daemon's default policies when a request carries
// none of its own.
type generator struct {
	eng      *engine.Engine
	defaults policy.OrgPolicies
}

func (g generator) Generate(ctx context.Context, raw []byte, pol policy.OrgPolicies) (*engine.Config, error) {
	if pol.IsZero() {
		pol = g.defaults
	}
	return g.eng.Generate(ctx, raw, pol)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("system started", "component", "railguard-d", "addr", cfg.Addr)

	store, err := trace.NewStore(cfg.DBPath)
	if err != nil {
		logger.Error("failed to init trace store", "error", err)
		os.Exit(1)
	}
	logger.Info("trace store initialized", "path", cfg.DBPath)

	defaults, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		logger.Error("failed to load org policies", "error", err)
		os.Exit(1)
	}

	opts := []engine.Option{
		engine.WithTracer(store),
		engine.WithLogger(logger),
		engine.WithTaskTimeout(cfg.TaskTimeout),
	}
	if cfg.ReasoningURL != "" {
		var c reasoning.Cache
		if cfg.RedisAddr != "" {
			c = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
			logger.Info("reasoning cache using redis", "addr", cfg.RedisAddr)
		} else {
			c = cache.NewMemory()
		}
		opts = append(opts, engine.WithReasoner(
			reasoning.NewClient(cfg.ReasoningURL, reasoning.WithCache(c, reasoning.DefaultCacheTTL), reasoning.WithLogger(logger)),
		))
		logger.Info("reasoning service configured", "url", cfg.ReasoningURL)
	} else {
		logger.Warn("reasoning service not configured; stances will degrade")
	}

	eng := engine.New(specialist.DefaultRegistry(), opts...)
	server := api.NewServer(generator{eng: eng, defaults: defaults}, store, logger, cfg.Addr)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Info("shutdown initiated", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("failed to stop server", "error", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("failed to close trace store", "error", err)
	}
	logger.Info("shutdown complete")
}
