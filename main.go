package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/va6996/seatsaero-mcp/bootstrap"
	"github.com/va6996/seatsaero-mcp/config"
	"github.com/va6996/seatsaero-mcp/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Setup signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 0. Load Config
	cfg, err := config.Load()
	if err != nil {
		log.Init("")
		log.Errorf(ctx, "Failed to load config: %v", err)
		return 1
	}

	// Initialize logging
	if err := log.Init(cfg.Log.Level); err != nil {
		log.Warnf(ctx, "%v", err)
	}

	// 1. Init App Components using Bootstrap
	app, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		log.Errorf(ctx, "Setup failed: %v", err)
		return 1
	}

	// 2. Serve MCP on stdio; stdout carries protocol frames only
	if err := app.Server.Serve(ctx, os.Stdin, os.Stdout); err != nil {
		log.Errorf(ctx, "Server failed: %v", err)
		return 1
	}

	log.Info(context.Background(), "Shutting down server...")
	return 0
}
