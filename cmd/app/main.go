package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bagdasarian/uniportal-groups/internal/app"
	"github.com/bagdasarian/uniportal-groups/internal/config"
	"github.com/bagdasarian/uniportal-groups/internal/handler"
	"github.com/bagdasarian/uniportal-groups/internal/handler/server"
	"github.com/bagdasarian/uniportal-groups/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log := logger.MustLoad(cfg.Log)
	defer log.Sync()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	h := handler.NewHandler(application.Groups, log.Named("http"))
	metricsHandler := promhttp.HandlerFor(application.Registry, promhttp.HandlerOpts{})
	srv := server.NewServer(h, metricsHandler, cfg.Server.Addr, log)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
}
