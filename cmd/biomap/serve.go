package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"gorm.io/gorm"

	"github.com/totegamma/biomap/internal/config"
	"github.com/totegamma/biomap/internal/infra/cache"
	"github.com/totegamma/biomap/internal/infra/database"
	"github.com/totegamma/biomap/internal/infra/repository"
	"github.com/totegamma/biomap/internal/observability"
	"github.com/totegamma/biomap/internal/present/rest"
	authmw "github.com/totegamma/biomap/internal/present/rest/middleware"
	"github.com/totegamma/biomap/internal/service"
	"github.com/totegamma/biomap/internal/usecase"
	"github.com/totegamma/biomap/policy"
)

const serviceName = "biomap"

func openDatabase(conf config.Config) (*gorm.DB, error) {
	if conf.Server.PostgresDsn != "" {
		return database.NewPostgres(conf.Server.PostgresDsn)
	}
	return database.NewSQLite(conf.Server.SqlitePath)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(conf)
			if err != nil {
				return err
			}
			err = database.Migrate(db)
			if err != nil {
				return err
			}
			slog.Info("migration complete", slog.String("module", "main"))
			return nil
		},
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), conf)
		},
	}
}

func serve(ctx context.Context, conf config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := observability.SetupTracing(observability.TraceConfig{
		ServiceName: serviceName,
		Enabled:     conf.Server.EnableTrace,
		Endpoint:    conf.Server.TraceEndpoint,
		Insecure:    true,
	})
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	db, err := openDatabase(conf)
	if err != nil {
		return err
	}
	err = database.Migrate(db)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if conf.Server.RedisAddr != "" {
		rdb = database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)
		err = database.PingRedis(ctx, rdb)
		if err != nil {
			return err
		}
		defer rdb.Close()
	} else {
		slog.Info("redis not configured, realtime events stay on this node", slog.String("module", "main"))
	}

	var shared cache.Memcache
	if conf.Server.MemcachedAddr != "" {
		shared = database.NewMemcached(conf.Server.MemcachedAddr)
	}

	doc := policy.ModerationPolicy
	if conf.NodeInfo.PolicyPath != "" {
		doc, err = policy.LoadFile(conf.NodeInfo.PolicyPath)
		if err != nil {
			return err
		}
	}

	domainConf := conf.Domain()
	repo := repository.NewPinRepository(db)
	signalService := service.NewSignalService(rdb)
	authService := service.NewAuthService(&domainConf, []byte(conf.Auth.JwtSecret))

	handler := rest.NewHandler(
		domainConf,
		usecase.NewPinUsecase(repo, signalService, domainConf.DefaultRadiusKm),
		usecase.NewModerationUsecase(repo, policy.NewAuthorizer(doc), signalService),
		usecase.NewFeedUsecase(repo, cache.NewCircleCache(shared), domainConf.SegmentCount),
		signalService,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(authmw.NewAuthMiddleware(authService).IdentifyIdentity)

	handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))

	go func() {
		slog.Info("listening", slog.String("addr", conf.Server.Listen), slog.String("module", "main"))
		err := e.Start(conf.Server.Listen)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", slog.String("error", err.Error()), slog.String("module", "main"))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
