package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/eshop/gateway"
	"github.com/example/eshop/pkg/auth"
	"github.com/example/eshop/pkg/config"
	"github.com/example/eshop/pkg/discovery"
	"github.com/example/eshop/pkg/events"
	"github.com/example/eshop/pkg/logging"
	"github.com/example/eshop/pkg/metrics"
	"github.com/example/eshop/pkg/ordering"
	"github.com/example/eshop/pkg/repository"
	"github.com/example/eshop/pkg/upload"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting eshop API",
		zap.String("name", cfg.Server.Name),
		zap.String("address", cfg.Server.Addr()))

	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoRepo.Close(ctx); err != nil {
			logger.Error("Failed to close MongoDB client", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
	err = mongoRepo.EnsureIndexes(ctx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}

	// The product cache is optional.
	var cache gateway.ProductCache
	if cfg.Redis.Addr != "" {
		redisRepo := repository.NewRedisRepository(&cfg.Redis)
		defer redisRepo.Close()

		if err := redisRepo.Ping(context.Background()); err != nil {
			logger.Warn("Redis connection failed, product cache disabled", zap.Error(err))
		} else {
			logger.Info("Redis connected successfully")
			cache = redisRepo
		}
	}

	publisher := events.New(cfg.Kafka)
	defer publisher.Close()

	uploads, err := upload.NewStorage(cfg.Upload.Dir)
	if err != nil {
		logger.Fatal("Failed to prepare upload storage", zap.Error(err))
	}

	workflow := ordering.NewService(mongoRepo, mongoRepo, mongoRepo, logger.Named("ordering"),
		ordering.WithAuditor(mongoRepo),
		ordering.WithPublisher(publisher))

	// Service registration is optional.
	regCtx, stopKeepAlive := context.WithCancel(context.Background())
	defer stopKeepAlive()

	instance := &discovery.Instance{Name: cfg.Server.Name, Host: cfg.Server.Host, Port: cfg.Server.Port}
	var registry *discovery.Registry
	var peers gateway.PeerDirectory
	if len(cfg.Etcd.Endpoints) > 0 {
		registry, err = discovery.NewRegistry(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
			registry = nil
		} else {
			peers = registry
		}
	}

	gw := gateway.NewGateway(cfg, logger, gateway.Services{
		Categories: mongoRepo,
		Products:   mongoRepo,
		Cache:      cache,
		Orders:     mongoRepo,
		Workflow:   workflow,
		Audit:      mongoRepo,
		Users:      mongoRepo,
		Feedbacks:  mongoRepo,
		Auth:       auth.NewAuthenticator(cfg.Auth),
		Uploads:    uploads,
		Metrics:    metrics.NewServerMetrics("api"),
		Peers:      peers,
		Health:     mongoRepo.Ping,
	})

	// Start gateway in goroutine
	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	if registry != nil {
		if err := registry.Register(regCtx, instance); err != nil {
			logger.Warn("Failed to register service", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", instance.Name),
				zap.String("address", instance.Addr()))
		}
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Error("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if registry != nil {
		if err := registry.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister service", zap.Error(err))
		}
		stopKeepAlive()
		registry.Close()
	}

	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}

	// Drain order events before the Kafka writer is closed.
	workflow.Wait()

	logger.Info("Service stopped")
}
