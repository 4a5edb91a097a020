package main

import (
	"os"

	mcpadapter "github.com/genequery/atlas-assistant/internal/adapters/mcp"
	"github.com/genequery/atlas-assistant/internal/bootstrap"
	"github.com/genequery/atlas-assistant/internal/config"
	"github.com/genequery/atlas-assistant/internal/observability/logging"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	// stdout carries the MCP stream, so logs go to stderr.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)

	tooling, err := bootstrap.NewTooling(cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}

	srv := mcpadapter.NewServer(version, tooling.Finder, tooling.Files, logger)
	logger.Info("mcp_serving_stdio", "version", version)
	if err := srv.ServeStdio(); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
