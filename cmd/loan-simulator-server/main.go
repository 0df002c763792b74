package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/loan-simulator/internal/bank"
	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/server"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/internal/store"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var version = "dev"

func main() {
	flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	address := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	configPath := config.ResolvePath(flag.CommandLine, "config")
	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", configPath, err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if conf.Server.Version == "" {
		conf.Server.Version = version
	}
	serverConfig, err := server.NewConfig(conf)
	if err != nil {
		logger.Fatal("invalid server configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if *address != "" {
		serverConfig.Address = *address
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	simulations, err := store.Open(ctx, logger, conf.Store.Driver, store.RedisOptions{
		Address:   conf.Store.Redis.Address,
		Password:  conf.Store.Redis.Password,
		DB:        conf.Store.Redis.DB,
		KeyPrefix: conf.Store.Redis.KeyPrefix,
	})
	cancel()
	if err != nil {
		logger.Fatal("failed to open simulation store",
			zap.String("op", "main"),
			zap.String("driver", conf.Store.Driver),
			zap.Error(err),
		)
	}
	defer func() {
		if err := simulations.Close(); err != nil {
			logger.Warn("failed to close simulation store",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	var limiter *server.RateLimiter
	if serverConfig.RateLimit.Requests > 0 {
		limiter = server.NewRateLimiter(serverConfig.RateLimit.Requests, serverConfig.RateLimit.Window)
		defer limiter.Stop()
	}

	handler, err := server.NewHandler(logger, serverConfig, server.Dependencies{
		Builder:     simulation.NewBuilder(logger, conf.SimulationPolicy()),
		Store:       simulations,
		Submitter:   bank.NewLogSubmitter(logger),
		RateLimiter: limiter,
	})
	if err != nil {
		logger.Fatal("failed to create API handler",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	httpServer := &http.Server{
		Addr:         serverConfig.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("loan simulator listening",
			zap.String("op", "main"),
			zap.String("address", serverConfig.Address),
			zap.String("store", conf.Store.Driver),
			zap.String("version", serverConfig.Version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during server shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
