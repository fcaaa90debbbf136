package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/healthpath/healthpath-go/pkg/api"
	"github.com/healthpath/healthpath-go/pkg/assessment"
	"github.com/healthpath/healthpath-go/pkg/config"
	"github.com/healthpath/healthpath-go/pkg/dataset"
	"github.com/healthpath/healthpath-go/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.GetLogger().Fatal("Failed to load config", err)
	}

	logger := logging.Init(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "healthpath-server",
	})
	logger.Info("Starting HealthPath server", logging.String("environment", cfg.Environment))

	policy, err := cfg.ResolvePolicy()
	if err != nil {
		logger.Fatal("Failed to load grouping policy", err)
	}

	source, closeSource, err := dataset.Open(cfg.DatasetFormat, cfg.DatasetPath, cfg.DatasetName)
	if err != nil {
		logger.Fatal("Failed to open reference dataset", err, logging.String("path", cfg.DatasetPath))
	}
	defer closeSource()

	service, err := assessment.NewService(source, policy, assessment.Options{
		MaxReferenceSize: cfg.MaxReferenceSize,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal("Failed to create assessment service", err)
	}

	// A missing or unusable reference population is fatal at startup
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Minute)
	err = service.Init(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("Failed to load reference population", err, logging.String("path", cfg.DatasetPath))
	}

	if cfg.ReloadSchedule != "" {
		scheduler, err := assessment.NewScheduler(service, cfg.ReloadSchedule)
		if err != nil {
			logger.Fatal("Failed to create reload scheduler", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := api.NewServer(service, cfg.Port, cfg.CORSOrigins)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start API server", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server exited")
}
