package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"ytfetch/internal/config"
	"ytfetch/internal/downloader"
	apphttp "ytfetch/internal/http"
	"ytfetch/internal/metadata"
	"ytfetch/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := storage.NewManager(cfg.Download.TempDir, logger)
	if err := store.EnsureRoot(); err != nil {
		logger.Fatalf("init scratch storage: %v", err)
	}

	manager := downloader.NewManager(downloader.Config{
		Binary:        cfg.Download.Binary,
		MaxConcurrent: cfg.Download.MaxConcurrent,
		ProgressDelta: cfg.Download.ProgressDelta,
		Logger:        logger,
	}, store)

	if err := manager.Start(ctx); err != nil {
		logger.Fatalf("start manager: %v", err)
	}

	meta := metadata.NewService(
		cfg.Download.Binary,
		time.Duration(cfg.Metadata.TimeoutSeconds)*time.Second,
		logger,
	)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(manager, store, meta, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	manager.Shutdown()

	if err := store.Cleanup(); err != nil {
		logger.Warnf("scratch cleanup: %v", err)
	}

	logger.Info("bye")
}
