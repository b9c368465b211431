package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StrathCole/chainlink-oracle-go/pkg/api"
	"github.com/StrathCole/chainlink-oracle-go/pkg/config"
	"github.com/StrathCole/chainlink-oracle-go/pkg/events"
	"github.com/StrathCole/chainlink-oracle-go/pkg/logging"
	"github.com/StrathCole/chainlink-oracle-go/pkg/metrics"
	"github.com/StrathCole/chainlink-oracle-go/pkg/version"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("oracle-go version %s\n", version.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.InitWithRotation(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, logging.RotationConfig{
		Path:       cfg.Logging.File.Path,
		MaxSize:    cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAge:     cfg.Logging.File.MaxAge,
		Compress:   cfg.Logging.File.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	logger.Info("Starting oracle-go", "version", version.Version, "agent", version.AgentString())

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logging.Info("Starting metrics server", "addr", cfg.Metrics.Addr)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logging.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- run(ctx, cfg, logger)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
		select {
		case <-errChan:
		case <-time.After(10 * time.Second):
			logger.Warn("Shutdown timed out")
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("Service failed", "error", err)
			cancel()
			os.Exit(1)
		}
	}

	logger.Info("Shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	bus := events.NewBus(logger)
	sink := events.Multi(bus, events.LogSink{Logger: logger})

	if cfg.NeedsEVM() {
		client, err := connectEVM(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer client.Close()
	}

	registry, err := buildRegistry(ctx, cfg, sink, logger)
	if err != nil {
		return err
	}

	factories, err := buildFactories(ctx, cfg, registry, sink, logger)
	if err != nil {
		return err
	}

	server := api.NewServer(cfg.Server.HTTP.Addr, registry, factories, cfg.Server.RequestTimeout.ToDuration(), logger)
	if cfg.Server.HTTP.TLS.Enabled {
		server.SetTLS(cfg.Server.HTTP.TLS.Cert, cfg.Server.HTTP.TLS.Key)
	}

	var wsServer *api.WebSocketServer
	if cfg.Server.WebSocket.Enabled {
		wsServer = api.NewWebSocketServer(cfg.Server.WebSocket.Addr, bus, logger)
		go func() {
			if err := wsServer.Start(ctx); err != nil {
				logger.Error("WebSocket server error", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Stop(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown failed", "error", err)
		}
		if wsServer != nil {
			wsServer.Stop()
		}
	}()

	return server.Start()
}
