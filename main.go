package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"emergencycore/errors"
	"emergencycore/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	// A .env file is optional; the environment itself is authoritative.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Warning: Failed to load .env file: %v\n", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Critical error: Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Warning: Failed to sync logger: %v\n", syncErr)
		}
	}()

	errors.SetLogger(logger)

	srv, err := server.NewServer(*configPath, logger)
	if err != nil {
		logger.Fatal("Server initialization failed",
			zap.Error(err),
			zap.String("config_path", *configPath),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Shutdown signal received",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("Server startup or runtime error",
			zap.Error(err),
		)
	}
}
