package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	_ "time/tzdata"

	"financas/internal/amqp"
	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/cli"
	"financas/internal/config"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	loc := cli.ApplyTimezone(logger, cfg)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	dashboard := services.NewDashboardService(repo, loc, cfg.DashboardCacheTTL)
	hooks := services.Hooks{Invalidator: dashboard}

	// Record events are optional: without a broker the activity log is not fed.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, record events disabled", log.FieldError, err)
		} else {
			amqpClient = client
			hooks.Publisher = client
			logger.Info("Publishing record events", "exchange", cfg.AMQPExchange)
		}
	}

	caches := cache.NewManager()
	if c := dashboard.Cache(); c != nil {
		caches.Register(c)
		caches.StartCleanup(5 * time.Minute)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, repo)
	srv := apphttp.NewServer(
		apphttp.Config{
			Addr:               ":" + cfg.Port,
			H2C:                cfg.H2C,
			RateLimitPerMinute: cfg.RateLimitPerMinute,
		},
		apphttp.Deps{
			Logger:    logger,
			Records:   services.NewRecordServices(repo, hooks),
			Dashboard: dashboard,
			Auth:      auth.NewPasswordAuthenticator(repo),
			Sessions:  sessions,
			Users:     repo,
			DB:        repo,
		},
	)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
	})

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"h2c", cfg.H2C,
		"timezone", loc.String(),
		"events", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		caches.Stop()
		closers := []io.Closer{repo}
		if amqpClient != nil {
			closers = []io.Closer{amqpClient, repo}
		}
		cli.Fatal(logger, "Server error", err, closers...)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
