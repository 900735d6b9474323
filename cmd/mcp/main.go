package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/homestay-faq-assistant/internal/adapters/mcp"
	"github.com/kirillkom/homestay-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/homestay-faq-assistant/internal/config"
	"github.com/kirillkom/homestay-faq-assistant/internal/observability/logging"
)

const version = "0.1.0"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "mcp", Logger: logger})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.ResponderUC, app.SearchUC, logger).MCPServer(version)
	logger.Info("mcp_serving", "transport", "stdio")
	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp_server_failed", "error", err)
		app.Close()
		os.Exit(1)
	}
}
