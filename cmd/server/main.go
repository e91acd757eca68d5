package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"

	"carfix/docs"
	"carfix/internal/auth"
	"carfix/internal/cache"
	"carfix/internal/config"
	"carfix/internal/db"
	"carfix/internal/handler"
	"carfix/internal/logs"
	"carfix/internal/repository"
	"carfix/internal/router"
	"carfix/internal/service"
	"carfix/internal/storage"
)

// @title CarFix Marketplace API
// @version 1.0
// @description Auto-parts marketplace API: catalog, carts, seller inventory and categories with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	fx.New(
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		injectInfra(),
		injectRepo(),
		injectService(),
		injectHandler(),
		fx.Provide(router.New),
		fx.Invoke(startServer),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.Load,
		logs.New,
		newDatabase,
		newCache,
		newImageStore,
		newUploader,
		storage.NewResolver,
		newJWTService,
		fx.Annotate(auth.NewTokenStore, fx.As(new(auth.TokenStoreInterface))),
		auth.NewGate,
	)
}

func injectRepo() fx.Option {
	return fx.Provide(
		repository.NewUserRepository,
		repository.NewProductRepository,
		repository.NewCartRepository,
		repository.NewCategoryRepository,
		repository.NewBrandRepository,
		repository.NewActivityRepository,
	)
}

func injectService() fx.Option {
	return fx.Provide(
		service.NewAuthService,
		service.NewUserService,
		service.NewCatalogService,
		service.NewCartService,
		service.NewInventoryService,
		service.NewCategoryService,
		service.NewActivityService,
	)
}

func injectHandler() fx.Option {
	return fx.Provide(
		handler.NewAuthHandler,
		handler.NewUserHandler,
		handler.NewCatalogHandler,
		handler.NewCartHandler,
		handler.NewInventoryHandler,
		handler.NewCategoryHandler,
		handler.NewActivityHandler,
		handler.NewUploadHandler,
	)
}

// newDatabase connects, migrates, and closes the pool on shutdown.
func newDatabase(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, logger, strings.EqualFold(cfg.LogLevel, "debug"))
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gormDB, cfg.ResetDB, logger); err != nil {
		_ = db.Close(gormDB)
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return db.Close(gormDB)
		},
	})
	return gormDB, nil
}

func newCache(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) *cache.Client {
	client := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// The cache is optional; an unreachable redis only disables it.
			if err := client.Ping(ctx); err != nil {
				logger.Warn("redis unreachable, caching disabled until it recovers", slog.Any("error", err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

func newImageStore(lc fx.Lifecycle, cfg *config.Config) (*storage.ImageStore, error) {
	store, err := storage.Open(context.Background(), cfg.StorageBucketURL, cfg.UploadsDir)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store, nil
}

func newUploader(store *storage.ImageStore, logger *slog.Logger, cfg *config.Config) *storage.Uploader {
	return storage.NewUploader(store, logger, cfg.MaxUploadFiles, cfg.MaxUploadBytes)
}

func newJWTService(cfg *config.Config) *auth.JWTService {
	return auth.NewJWTService(cfg.JWTSecret)
}

func startServer(lc fx.Lifecycle, shutdowner fx.Shutdowner, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	addr := net.JoinHostPort("", cfg.ServerPort)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting HTTP server",
				slog.String("addr", addr),
				slog.String("swagger", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))
			go func() {
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("HTTP server stopped", slog.Any("error", err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down HTTP server")
			return e.Shutdown(ctx)
		},
	})
}
