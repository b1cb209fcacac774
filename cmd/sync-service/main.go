package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/emberworks/content-sync/pkg/audit"
	"github.com/emberworks/content-sync/pkg/common/config"
	"github.com/emberworks/content-sync/pkg/common/database"
	"github.com/emberworks/content-sync/pkg/common/kafka"
	"github.com/emberworks/content-sync/pkg/common/logger"
	"github.com/emberworks/content-sync/pkg/content"
	"github.com/emberworks/content-sync/pkg/execlog"
	"github.com/emberworks/content-sync/pkg/gateway"
	"github.com/emberworks/content-sync/pkg/identity"
	"github.com/emberworks/content-sync/pkg/monitoring"
	"github.com/emberworks/content-sync/pkg/review"
	"github.com/emberworks/content-sync/pkg/sources/catalog"
	"github.com/emberworks/content-sync/pkg/sources/clips"
	"github.com/emberworks/content-sync/pkg/sources/rss"
	"github.com/emberworks/content-sync/pkg/syncer"
)

func main() {
	logger.Init()
	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		logger.Log.WithError(err).Fatal("invalid configuration")
	}

	content.ConfigureAutoPublish(cfg.AutoPublishNews, cfg.AutoPublishReleases, cfg.AutoPublishVideos)

	db, err := database.OpenPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer database.ClosePostgres(db)

	rdb := database.OpenRedis(cfg)
	defer database.CloseRedis(rdb)

	auditRepo := audit.NewRepository(db)
	execRepo := execlog.NewRepository(db)
	adminRepo := identity.NewRepository(db)

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.ContentEventsTopic)
	defer producer.Close()

	contentRepo := content.NewRepository(db, auditRepo, producer)

	for _, m := range []interface{ AutoMigrate() error }{auditRepo, execRepo, adminRepo, contentRepo} {
		if err := m.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate tables")
		}
	}

	rules, err := rss.LoadRules(cfg.RSSRulesPath)
	if err != nil {
		logger.Log.WithError(err).Warn("failed to load classification rules, using defaults")
	}
	rssAdapter := rss.New(rules)

	tokens := catalog.NewTokenSource(cfg.CatalogClientID, cfg.CatalogClientSecret, cfg.CatalogTokenURL)
	catalogClient := catalog.NewClient(tokens, cfg.CatalogAPIURL, catalog.NewCache(rdb, cfg.CatalogCacheTTL))
	clipsClient := clips.NewClient(tokens, cfg.ClipsAPIURL, cfg.ClipsBroadcasterID)

	releaseSources := []syncer.ReleaseSource{
		&syncer.CatalogReleaseSource{Client: catalogClient, Queries: cfg.CatalogQueries},
	}
	if cfg.ReleaseMirrorURL != "" {
		releaseSources = append(releaseSources, syncer.NewMirrorReleaseSource(cfg.ReleaseMirrorURL))
	}
	releaseSources = append(releaseSources, syncer.SeedReleaseSource{})

	syncService := syncer.NewService(
		contentRepo,
		rssAdapter,
		cfg.RSSFeedURLs,
		releaseSources,
		&syncer.ClipsSource{Client: clipsClient},
	)

	var tokenManager *identity.TokenManager
	if cfg.AdminTokenSecret != "" {
		tokenManager, err = identity.NewTokenManager(cfg.AdminTokenSecret, cfg.AdminTokenIssuer, cfg.AdminTokenAudience, time.Hour)
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to initialize token manager")
		}
	}

	gate := &gateway.Gate{
		Admins:     adminRepo,
		CronSecret: cfg.CronSecret,
	}
	if tokenManager != nil {
		gate.Tokens = tokenManager
	}

	router := mux.NewRouter()
	router.Use(gateway.Recovery)
	router.Use(gateway.Logging)
	router.Use(gateway.CORS(cfg.AllowedOrigins))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(gate.Middleware)
	syncer.NewHTTPHandler(syncService, execRepo).Register(api)
	review.NewHTTPHandler(contentRepo).Register(api)
	monitoring.NewHTTPHandler(execRepo).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Content Sync Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Content Sync Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Content Sync Service stopped")
}
