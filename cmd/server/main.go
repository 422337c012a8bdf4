package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gioservice_backend/internal/config"
	"gioservice_backend/internal/database"
	"gioservice_backend/internal/events"
	"gioservice_backend/internal/intake"
	"gioservice_backend/internal/locks"
	"gioservice_backend/internal/metrics"
	"gioservice_backend/internal/repositories"
	"gioservice_backend/internal/router"
	"gioservice_backend/internal/services"
	"gioservice_backend/internal/storage"
	"gioservice_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	draftTTL        = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; fall back to defaults.
		utils.InitLogger("info", true)
		utils.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}
	utils.InitLogger(cfg.LogLevel, !cfg.IsProduction())

	if err := run(cfg); err != nil {
		utils.LogError(err, "Server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.InitDB(cfg.DSN(), cfg.DBApplySchema)
	if err != nil {
		return err
	}
	defer db.Close()
	utils.LogInfo("Database initialized", map[string]interface{}{"host": cfg.DBHost, "name": cfg.DBName})

	deps := router.Dependencies{
		DB:        db,
		Config:    cfg,
		Tokens:    utils.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTL),
		Locker:    locks.Noop{},
		Drafts:    intake.NewMemoryDraftStore(draftTTL),
		Publisher: events.Noop{},
		Metrics:   metrics.New(),
	}

	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress, Password: cfg.RedisPassword})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		deps.Locker = locks.NewRedisLocker(rdb)
		deps.Drafts = intake.NewRedisDraftStore(rdb, draftTTL)
		utils.LogInfo("Redis connected", map[string]interface{}{"address": cfg.RedisAddress})
	} else {
		utils.LogWarn("REDIS_ADDRESS not set; using in-process locks and drafts")
	}

	switch cfg.StorageProvider {
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSON)
		if err != nil {
			return err
		}
		defer client.Close()
		deps.Blobs = storage.NewGCSStore(client, cfg.GCSBucket, cfg.StoragePublicBaseURL)
	default:
		local, err := storage.NewLocalStore(cfg.LocalStorageDir, cfg.StoragePublicBaseURL)
		if err != nil {
			return err
		}
		deps.Blobs = local
		deps.MediaDir = local.Root()
	}
	utils.LogInfo("Photo storage ready", map[string]interface{}{"provider": cfg.StorageProvider})

	if cfg.PubSubProjectID != "" {
		publisher, err := events.NewPubSubPublisher(ctx, cfg.PubSubProjectID, cfg.PubSubTopic, cfg.GCSCredentialsJSON)
		if err != nil {
			return err
		}
		defer publisher.Close()
		deps.Publisher = publisher
	}

	authService := services.NewAuthService(repositories.NewAuthRepository(db), db, deps.Tokens)
	if err := authService.EnsureBootstrapAdmin(cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword); err != nil {
		return err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	router.Setup(engine, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "env": cfg.AppEnv})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
