package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"JobRadar/internal/app"
	"JobRadar/internal/config"
	"JobRadar/internal/logging"
)

func main() {
	ctx := context.Background()

	// Credentials commonly live in a .env file during local runs.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
