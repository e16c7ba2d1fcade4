// Command railguard-mcp exposes the railguard daemon over the Model
// Context Protocol on stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/railguard-ai/railguard/pkg/mcp"
)

func main() {
	apiURL := flag.String("api", envOrDefault("RAILGUARD_API_URL", "http://127.0.0.1:8790"), "railguard daemon base URL")
	flag.Parse()

	s := mcp.NewServer(*apiURL)
	if err := s.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "railguard-mcp: %v\n", err)
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
