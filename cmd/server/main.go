package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"knowledge-governance/internal/bootstrap"
	"knowledge-governance/internal/config"
	"knowledge-governance/internal/pkg/logger"
	httptransport "knowledge-governance/internal/transport/http"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	zapLogger, err := logger.New(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			zapLogger.Warn("close resources failed", zap.Error(err))
		}
	}()

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLogger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("rabbitmq", cfg.RabbitMQ.Enabled))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, zapLogger)
}

func waitForShutdown(server *http.Server, zapLogger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("server shutdown failed", zap.Error(err))
	}
}
