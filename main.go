package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"fujin.app/app"
	"fujin.app/pkg/logger"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}

	logger.SetDefault(logger.New(os.Getenv("LOG_LEVEL")))

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	setupGracefulShutdown(application)

	slog.Info("starting Fujin weather engine")
	if err := application.Start(); err != nil {
		slog.Error("failed to start application", "error", err)
		os.Exit(1)
	}
}

func setupGracefulShutdown(application *app.Application) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		slog.Info("received shutdown signal")
		if err := application.Shutdown(); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
		os.Exit(0)
	}()
}
