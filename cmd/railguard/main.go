// Command railguard generates a guardrail configuration from an
// assessment file in one shot, without a daemon.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/railguard-ai/railguard/pkg/assessment"
	"github.com/railguard-ai/railguard/pkg/cache"
	"github.com/railguard-ai/railguard/pkg/engine"
	"github.com/railguard-ai/railguard/pkg/policy"
	"github.com/railguard-ai/railguard/pkg/reasoning"
	"github.com/railguard-ai/railguard/pkg/specialist"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flagSet := flag.NewFlagSet("railguard", flag.ContinueOnError)
	assessmentPath := flagSet.String("assessment", "", "path to the assessment JSON file (required)")
	policyPath := flagSet.String("policies", "", "path to an org policy YAML file")
	outPath := flagSet.String("out", "", "write the artifact here instead of stdout")
	reasoningURL := flagSet.String("reasoning-url", os.Getenv("RAILGUARD_REASONING_URL"), "reasoning service base URL")
	timeout := flagSet.Duration("timeout", 2*time.Minute, "overall generation deadline")
	verbose := flagSet.Bool("v", false, "verbose logging")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *assessmentPath == "" {
		fmt.Fprintln(os.Stderr, "railguard: -assessment is required")
		flagSet.PrintDefaults()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	raw, err := os.ReadFile(*assessmentPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "railguard: read assessment: %v\n", err)
		return 1
	}
	pol, err := policy.Load(*policyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "railguard: %v\n", err)
		return 1
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if *reasoningURL != "" {
		opts = append(opts, engine.WithReasoner(
			reasoning.NewClient(*reasoningURL, reasoning.WithCache(cache.NewMemory(), reasoning.DefaultCacheTTL), reasoning.WithLogger(logger)),
		))
	}
	eng := engine.New(specialist.DefaultRegistry(), opts...)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, err := eng.Generate(ctx, raw, pol)
	if err != nil {
		if errors.Is(err, assessment.ErrUnusable) {
			fmt.Fprintf(os.Stderr, "railguard: assessment is unusable: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "railguard: %v\n", err)
		}
		return 1
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "railguard: encode artifact: %v\n", err)
		return 1
	}
	data = append(data, '\n')

	if *outPath != "" {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "railguard: write artifact: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stderr, "railguard: run %s written to %s (confidence %.2f, validation %d/100)\n",
			cfg.RunID, *outPath, cfg.ConfidenceScore.Overall, cfg.Validation.Score)
		return 0
	}

	os.Stdout.Write(data)
	return 0
}
