package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fdchain/config"
	"fdchain/core"
	"fdchain/observability"
	"fdchain/observability/logging"
	telemetry "fdchain/observability/otel"
)

func main() {
	cfgPath := flag.String("config", "./config.toml", "Path to the configuration file")
	genesisPath := flag.String("genesis", "", "Path to a genesis file applied to an empty data directory")
	flag.Parse()

	if err := run(*cfgPath, *genesisPath); err != nil {
		fmt.Fprintf(os.Stderr, "fdnode: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath, genesisOverride string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, logCloser := logging.SetupWithOptions(logging.Options{
		Service: "fdnode",
		Env:     cfg.Env,
		File:    cfg.ResolvePath(cfg.LogFile),
		Level:   logging.ParseLevel(os.Getenv("FD_LOG_LEVEL")),
	})
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "fdnode",
		Environment: cfg.Env,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	n, err := newNode(cfg, genesisOverride, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}
	defer n.Close()

	interval, err := time.ParseDuration(cfg.BlockInterval)
	if err != nil {
		return fmt.Errorf("parse block interval: %w", err)
	}
	producer, err := core.NewProducer(n.runtime, interval, logger.With("component", "producer"))
	if err != nil {
		return err
	}
	producer.SetMetrics(observability.Chain())

	server := &http.Server{
		Addr:              cfg.Gateway.ListenAddress,
		Handler:           n.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	listener, err := net.Listen("tcp", cfg.Gateway.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "address", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	producer.Start()
	logger.Info("node started", "interval", interval.String(), "data_dir", cfg.DataDir)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			logger.Error("gateway stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	producer.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}
