package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crmsync/internal/client/crm"
	"crmsync/internal/config"
	cronrunner "crmsync/internal/cron"
	"crmsync/internal/db"
	"crmsync/internal/handler"
	"crmsync/internal/logger"
	gormrepository "crmsync/internal/repository/gorm"
	"crmsync/internal/sink"
	syncengine "crmsync/internal/sync"
)

func main() {
	cfgPath := os.Getenv("CRMSYNC_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	envOnly := false
	if raw := os.Getenv("CRMSYNC_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)
	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	crmClient := crm.NewClient(&http.Client{Timeout: cfg.CRM.Timeout}, cfg.CRM.BaseURL)
	refresher := crm.NewTokenRefresher(cfg.CRM)
	sinkClient := sink.NewClient(&http.Client{Timeout: cfg.Sink.Timeout}, cfg.Sink.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	syncService := &syncengine.Service{
		Store:        store,
		Refresher:    refresher,
		Search:       crmClient,
		Associations: crmClient,
		SinkFactory: func(apiKey string) syncengine.Sender {
			return sinkClient.Bind(apiKey)
		},
		Settings: syncengine.Settings{
			PageSize:       cfg.Sync.PageSize,
			OffsetCeiling:  cfg.Sync.OffsetCeiling,
			FlushThreshold: cfg.Sync.FlushThreshold,
			RetryAttempts:  cfg.Sync.RetryAttempts,
			RetryBaseDelay: cfg.Sync.RetryBaseDelay,
		},
		Persist: cfg.Checkpoint.Persist,
		Logger:  log,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Service: syncService, Store: store, Logger: log}
	syncHandler.Register(engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := cronrunner.New(log, ctx)
	if cfg.Cron.Enabled {
		_, err := runner.Add("full sync", cfg.Cron.SyncInterval, func(ctx context.Context) {
			if _, err := syncService.RunOnce(ctx, ""); err != nil {
				log.Warn("scheduled sync failed", zap.Error(err))
			}
		})
		if err != nil {
			log.Fatal("cron register sync failed", zap.Error(err))
		}
	}
	runner.Start()
	defer runner.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
}
