package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gottabeautomated/WILMA-Mk1/internal/amqp"
	"github.com/gottabeautomated/WILMA-Mk1/internal/auth"
	"github.com/gottabeautomated/WILMA-Mk1/internal/backend"
	"github.com/gottabeautomated/WILMA-Mk1/internal/cache"
	"github.com/gottabeautomated/WILMA-Mk1/internal/cli"
	apphttp "github.com/gottabeautomated/WILMA-Mk1/internal/http"
	"github.com/gottabeautomated/WILMA-Mk1/internal/services"
	"github.com/gottabeautomated/WILMA-Mk1/internal/stream"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting wilma server")

	cfg := cli.LoadAndValidateConfig(logger)

	// Persistence backend (memory or sqlite)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Live snapshot fan-out for this instance
	hub := stream.NewHub()

	// Optional AMQP channel for cross-instance change notifications
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without cross-instance updates", "error", err)
			amqpClient = nil
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	budget := services.NewBudgetService(result.Backend, hub, amqpClient)
	defer func() {
		if err := budget.Close(); err != nil {
			logger.Error("Budget service close failed", "error", err)
		}
	}()

	authSvc := auth.NewService(result.Backend, cfg.SessionCacheSize)

	// Periodic cleanup for expired cached sessions
	cacheManager := cache.NewManager()
	cacheManager.Register(authSvc.SessionCache())
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, budget, authSvc, hub, cfg.SummaryCacheTTL)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 0 // the event stream stays open indefinitely
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeItemChanges(gctx, func(msg *amqp.ItemChangedMessage) error {
				return budget.HandleChangeMessage(gctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
