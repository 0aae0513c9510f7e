package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adminpanel/adminpanel/internal/app"
	"github.com/adminpanel/adminpanel/internal/auth"
	"github.com/adminpanel/adminpanel/internal/chat"
	"github.com/adminpanel/adminpanel/internal/cipher"
	"github.com/adminpanel/adminpanel/internal/gate"
	"github.com/adminpanel/adminpanel/internal/observability"
	"github.com/adminpanel/adminpanel/internal/platform/cache"
	"github.com/adminpanel/adminpanel/internal/platform/db"
	"github.com/adminpanel/adminpanel/internal/posts"
	"github.com/adminpanel/adminpanel/internal/rbac"
	"github.com/adminpanel/adminpanel/internal/shared"
	"github.com/adminpanel/adminpanel/internal/token"
	"github.com/adminpanel/adminpanel/internal/training"
	"github.com/adminpanel/adminpanel/internal/users"
	"github.com/adminpanel/adminpanel/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	policy := gate.DefaultPolicy()
	if cfg.PolicyFile != "" {
		policy, err = gate.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			logger.Error("load policy", slog.String("file", cfg.PolicyFile), slog.Any("error", err))
			os.Exit(1)
		}
	}

	ids, err := cipher.NewService(cfg.CryptoSecretKey)
	if err != nil {
		logger.Error("init cipher", slog.Any("error", err))
		os.Exit(1)
	}
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.BearerTTL)
	if err != nil {
		logger.Error("init bearer issuer", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	rbacService := rbac.NewService(rbac.NewRepository(dbpool))
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger, Decisions: metrics}

	usersService := users.NewService(users.NewRepository(dbpool), cfg.DefaultRole)
	authService, err := auth.NewService(usersService, rbacService, ids, issuer, auth.Options{
		MaxAge:          cfg.SessionTTL,
		RefreshInterval: cfg.SessionRefreshInterval,
	})
	if err != nil {
		logger.Error("init auth service", slog.Any("error", err))
		os.Exit(1)
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		_ = inspector.Close()
	}()

	inference := chat.NewClient(cfg.InferenceURL, cfg.InferenceTimeout)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Gate: &gate.Gate{
			Policy:    policy,
			Refresher: authService,
			Bearer:    issuer,
			Logger:    logger,
			Decisions: metrics,
		},
		Bearer:         token.Middleware{Verifier: issuer, Logger: logger, Decisions: metrics},
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,

		AuthHandler:     auth.NewHandler(logger, authService, sessionManager, csrfManager, cfg.LoginRateLimit),
		UsersHandler:    users.NewHandler(logger, usersService, ids, auditLogger, rbacMiddleware),
		PostsHandler:    posts.NewHandler(logger, posts.NewService(posts.NewRepository(dbpool)), ids, auditLogger, rbacMiddleware),
		TrainingHandler: training.NewHandler(logger, training.NewService(training.NewRepository(dbpool), jobsClient), rbacMiddleware),
		ChatHandler:     chat.NewHandler(logger, inference),
		RolesHandler:    rbac.NewHandler(logger, rbacService, ids, rbacMiddleware),
		JobHandler:      jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
