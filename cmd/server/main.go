package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "statues/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"statues/internal/auth"
	"statues/internal/cache"
	"statues/internal/config"
	"statues/internal/db"
	"statues/internal/handler"
	"statues/internal/logging"
	"statues/internal/repository"
	"statues/internal/router"
	"statues/internal/service"
	"statues/internal/storage"
)

// @title Statue Gallery API
// @version 1.0
// @description Statue catalog with session-cookie authentication, admin-only editing, image uploads and per-user favorites.
// @host localhost:8081
// @BasePath /
// @schemes http
func main() {
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	cfg := config.Load()
	logging.Configure(cfg.LogLevel, cfg.IsProduction())
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, db.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	if err != nil {
		logrus.Fatalf("database init: %v", err)
	}

	if cfg.AutoMigrate || *migrateOnly {
		if err := db.Migrate(ctx, gormDB); err != nil {
			logrus.Fatalf("migrate: %v", err)
		}
		logrus.Info("database migrations applied")
	}
	if *migrateOnly {
		return
	}

	var redisClient *redis.Client
	if cfg.SessionStore == "redis" || cfg.CacheEnabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			// The client reconnects on its own; requests fail or miss the cache meanwhile.
			logrus.WithFields(logrus.Fields{"addr": cfg.RedisAddr, "error": err.Error()}).Warn("redis unreachable at start-up")
		}
		cancel()
	}

	var cacheClient *cache.Client
	if cfg.CacheEnabled {
		cacheClient = cache.New(redisClient)
	}

	var sessionStore auth.SessionStore
	switch cfg.SessionStore {
	case "memory":
		sessionStore = auth.NewMemorySessionStore()
	default:
		sessionStore = auth.NewRedisSessionStore(redisClient)
	}
	sessions := auth.NewSessionManager(sessionStore, auth.NewTokenSigner(cfg.SessionSecret), cfg.SessionTTL)

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("image store init: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	statueRepo := repository.NewStatueRepository(gormDB)
	favoriteRepo := repository.NewFavoriteRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessions)
	statueService := service.NewStatueService(statueRepo, images, cacheClient, cfg.PublicBaseURL)
	favoriteService := service.NewFavoriteService(favoriteRepo, statueRepo, cfg.PublicBaseURL)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, handler.CookieConfig{
		Name:   cfg.SessionCookie,
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	})
	statueHandler := handler.NewStatueHandler(statueService)
	favoriteHandler := handler.NewFavoriteHandler(favoriteService)
	assetHandler := handler.NewAssetHandler(images)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, sessions, authHandler, statueHandler, favoriteHandler, assetHandler)

	go func() {
		addr := ":" + cfg.ServerPort
		logrus.WithFields(logrus.Fields{
			"addr":          addr,
			"session_store": cfg.SessionStore,
			"image_backend": cfg.ImageBackend,
		}).Info("server starting")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.ImageBackend == "s3" {
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return storage.NewDiskStore(cfg.UploadDir)
}
