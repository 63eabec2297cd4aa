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

	"github.com/almasbek/mediaportal/internal/auth"
	"github.com/almasbek/mediaportal/internal/config"
	"github.com/almasbek/mediaportal/internal/file"
	"github.com/almasbek/mediaportal/internal/logger"
	"github.com/almasbek/mediaportal/internal/processing"
	"github.com/almasbek/mediaportal/internal/server"
	"github.com/almasbek/mediaportal/internal/storage"
	"github.com/almasbek/mediaportal/internal/user"
)

func main() {
	_ = godotenv.Load()

	logg, err := logger.Init(os.Getenv("MEDIAPORTAL_LOG_LEVEL"))
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	cfg, err := config.Load()
	if err != nil {
		logg.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		logg.Fatal("connect minio", zap.Error(err))
	}

	if err := storage.EnsureBucket(ctx, minioClient, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
		logg.Fatal("ensure bucket", zap.Error(err))
	}

	authRepo := auth.NewRepository(dbPool)
	var googleVerifier auth.TokenVerifier
	if cfg.Google.ClientID != "" {
		googleVerifier = auth.NewGoogleVerifier(cfg.Google.ClientID)
	}
	authService := auth.NewService(authRepo, googleVerifier, cfg.Auth)

	userRepo := user.NewRepository(dbPool)
	userService := user.NewService(userRepo, cfg.Auth)

	fileRepo := file.NewRepository(dbPool)
	fileStore := file.NewMinIOStore(minioClient)

	registry := processing.NewRegistry()
	processor := processing.NewProcessor(fileRepo, fileStore, cfg.MinIO.Bucket, registry, cfg.Processing.RunTimeout, logg)
	pool := processing.NewPool(processor, cfg.Processing, logg)
	pool.Start(ctx)

	fileService := file.NewService(fileRepo, fileStore, pool, cfg.MinIO.Bucket, cfg.Upload, logg)

	router := server.NewRouter(server.Dependencies{
		Config:      cfg,
		DB:          dbPool,
		ObjectStore: minioClient,
		AuthService: authService,
		UserService: userService,
		FileService: fileService,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logg.Info("media portal API listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logg.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Warn("shutdown error", zap.Error(err))
	}
	pool.Stop()
}
