package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAddr        = "127.0.0.1:8790"
	defaultTaskTimeout = 30 * time.Second
)

type Config struct {
	DBPath       string
	PolicyPath   string
	Addr         string
	ReasoningURL string
	RedisAddr    string
	TaskTimeout  time.Duration
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "railguard.db")

	dbPath := envOrDefault("RAILGUARD_DB_PATH", defaultDBPath)
	policyPath := os.Getenv("RAILGUARD_POLICY_PATH")
	addr := addrFromEnv(defaultAddr)
	reasoningURL := os.Getenv("RAILGUARD_REASONING_URL")
	redisAddr := os.Getenv("RAILGUARD_REDIS_ADDR")
	taskTimeout := defaultTaskTimeout
	if env := os.Getenv("RAILGUARD_TASK_TIMEOUT"); env != "" {
		parsed, err := time.ParseDuration(env)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RAILGUARD_TASK_TIMEOUT: %w", err)
		}
		if parsed <= 0 {
			return Config{}, errors.New("RAILGUARD_TASK_TIMEOUT must be positive")
		}
		taskTimeout = parsed
	}

	flagSet := flag.NewFlagSet("railguard-d", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to SQLite run trace database")
	flagPolicy := flagSet.String("policies", policyPath, "path to org policy YAML")
	flagAddr := flagSet.String("addr", addr, "HTTP listen address")
	flagReasoning := flagSet.String("reasoning-url", reasoningURL, "reasoning service base URL (empty disables reasoning stances)")
	flagRedis := flagSet.String("redis", redisAddr, "redis address for the reasoning cache (empty uses in-memory)")
	flagTaskTimeout := flagSet.String("task-timeout", taskTimeout.String(), "per-proposal-task deadline")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	taskTimeoutParsed, err := time.ParseDuration(*flagTaskTimeout)
	if err != nil {
		return Config{}, fmt.Errorf("invalid task timeout: %w", err)
	}
	if taskTimeoutParsed <= 0 {
		return Config{}, errors.New("task timeout must be positive")
	}

	config := Config{
		DBPath:       resolvePath(*flagDB, cwd),
		PolicyPath:   resolvePath(*flagPolicy, cwd),
		Addr:         strings.TrimSpace(*flagAddr),
		ReasoningURL: strings.TrimSpace(*flagReasoning),
		RedisAddr:    strings.TrimSpace(*flagRedis),
		TaskTimeout:  taskTimeoutParsed,
	}

	if config.Addr == "" {
		return Config{}, errors.New("addr cannot be empty")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func addrFromEnv(fallback string) string {
	if value := os.Getenv("RAILGUARD_ADDR"); value != "" {
		return value
	}
	if port := os.Getenv("RAILGUARD_PORT"); port != "" {
		return fmt.Sprintf("127.0.0.1:%s", port)
	}
	return fallback
}

func resolvePath(path string, cwd string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(cwd, trimmed)
}
