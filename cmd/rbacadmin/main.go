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

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-rbac/internal/app"
	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
	audithttp "github.com/odyssey-erp/odyssey-rbac/internal/audit/http"
	"github.com/odyssey-erp/odyssey-rbac/internal/auth"
	"github.com/odyssey-erp/odyssey-rbac/internal/observability"
	"github.com/odyssey-erp/odyssey-rbac/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-rbac/internal/platform/db"
	"github.com/odyssey-erp/odyssey-rbac/internal/rbac"
	"github.com/odyssey-erp/odyssey-rbac/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("rbac admin stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: cfg.PGMaxConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		sqlDB := db.OpenSQL(pool)
		err := db.RunMigrations(ctx, sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, login throttle fails open", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer jobClient.Close()
	inspector := asynq.NewInspector(redisOpts)
	defer inspector.Close()

	metrics := observability.NewMetrics()
	recorder := jobs.NewAuditEnqueuer(jobClient)

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	gate := auth.NewGate(tokens, cfg.AdminEmail, logger)
	authService := auth.NewService(auth.NewRepository(pool), auth.ServiceConfig{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		AdminUserID:   cfg.AdminUserID,
		Hasher:        auth.NewBcryptHasher(cfg.BcryptCost),
		Tokens:        tokens,
		Throttle:      auth.NewRedisThrottle(redisClient, cfg.LoginMaxFailures, cfg.LoginFailureWindow),
		Audit:         recorder,
		Observer:      metrics,
		Logger:        logger,
	})
	rbacService := rbac.NewService(rbac.NewRepository(pool), recorder, logger)
	auditService := audit.NewService(audit.NewStore(pool))

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AuthHandler:        auth.NewHandler(logger, authService, gate),
		PermissionsHandler: rbac.NewPermissionsHandler(logger, rbacService, gate),
		RolesHandler:       rbac.NewRolesHandler(logger, rbacService, gate),
		AuditHandler:       audithttp.NewHandler(logger, auditService, gate),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Metrics:            metrics,
		AccessLog:          !cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
