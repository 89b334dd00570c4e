package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oakline/fundsim/internal/config"
	"github.com/oakline/fundsim/internal/logging"
	"github.com/oakline/fundsim/internal/services"
)

func main() {
	outPath := flag.String("out", "", "write the run report to this file instead of stdout")
	flag.Parse()

	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Warn("interrupt received, stopping at next stage boundary")
		cancel()
	}()

	service := services.NewSimulationService(cfg, logger)
	report, err := service.Run(ctx)
	if err != nil {
		logger.WithError(err).Fatal("simulation failed")
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("failed to encode run report")
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			logger.WithError(err).Fatal("failed to write run report")
		}
		logger.WithField("path", *outPath).Info("run report written")
		return
	}
	if _, err := os.Stdout.Write(append(out, '\n')); err != nil {
		logger.WithError(err).Fatal("failed to write run report")
	}
}
