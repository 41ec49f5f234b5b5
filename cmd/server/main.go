package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/goldierill/board/internal/app"
	"github.com/goldierill/board/internal/config"
	"github.com/goldierill/board/internal/pkg/logging"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(cfg.LogsDir, cfg.IsDev()); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	application, err := app.New(cfg)
	if err != nil {
		zap.L().Fatal("startup failed", zap.Error(err))
	}

	go func() {
		if err := application.Run(); err != nil {
			zap.L().Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zap.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		zap.L().Error("shutdown error", zap.Error(err))
	}
}
