package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onexcrm/onexcrm/internal/app"
	"github.com/onexcrm/onexcrm/internal/entity"
	"github.com/onexcrm/onexcrm/internal/form"
	"github.com/onexcrm/onexcrm/internal/masterdata/clients"
	"github.com/onexcrm/onexcrm/internal/masterdata/partners"
	"github.com/onexcrm/onexcrm/internal/masterdata/suppliers"
	"github.com/onexcrm/onexcrm/internal/observability"
	"github.com/onexcrm/onexcrm/internal/page"
	"github.com/onexcrm/onexcrm/internal/platform/cache"
	"github.com/onexcrm/onexcrm/internal/platform/db"
	"github.com/onexcrm/onexcrm/internal/rates"
	"github.com/onexcrm/onexcrm/internal/shell"
)

type window struct {
	slug    string
	newRepo func(entity.DB, bool, entity.Recorder) (*entity.Repository, error)
	newForm form.Factory
}

var windows = []window{
	{slug: "suppliers", newRepo: suppliers.NewRepository, newForm: suppliers.NewForm},
	{slug: "clients", newRepo: clients.NewRepository, newForm: clients.NewForm},
	{slug: "partners", newRepo: partners.NewRepository, newForm: partners.NewForm},
}

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

	// The shell starts without a database; every page then reports
	// "Could not connect to database" until restarted.
	var conn entity.DB
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGConnectTimeout)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
	} else {
		conn = pool
		defer pool.Close()
	}

	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr); err != nil {
		logger.Warn("redis unavailable, rates will not be cached", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	ratesService := rates.NewService(rates.NewFetcher(cfg.RatesURL), redisClient, cfg.RatesTTL, logger)
	go ratesService.Prefetch(ctx)

	shellHandler := shell.NewHandler(logger, ratesService)
	for _, w := range windows {
		if err := register(shellHandler, w, conn, cfg, logger, metrics); err != nil {
			logger.Error("register page", slog.String("page", w.slug), slog.Any("error", err))
			os.Exit(1)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Shell:   shellHandler,
		Metrics: metrics,
		Ready:   func() bool { return conn != nil },
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("dev_mode", cfg.AppDevMode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func register(h *shell.Handler, w window, conn entity.DB, cfg *app.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	repo, err := w.newRepo(conn, cfg.AppDevMode, metrics)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	return h.Register(w.slug, page.Config{
		Schema:         repo.Schema(),
		NewForm:        w.newForm,
		Repository:     repo,
		Logger:         logger,
		IndicatorDelay: cfg.RefreshIndicatorDelay,
	})
}
