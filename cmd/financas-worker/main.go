package main

import (
	"context"
	"errors"
	"time"

	_ "time/tzdata"

	"financas/internal/amqp"
	"financas/internal/auth"
	"financas/internal/backend"
	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	loc := cli.ApplyTimezone(logger, cfg)

	logger.Info("Starting financas-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	writer, err := backend.NewFactory(logger.Logger).CreateWriter(context.Background(), backend.FromAppConfig(cfg, loc))
	if err != nil {
		cli.Fatal(logger, "Failed to initialize activity log", err, repo)
	}
	activity := worker.NewActivityWorker(writer)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err, repo)
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieSecure, repo)
	janitor := worker.NewSessionJanitor(sessions, cfg.SessionPruneInterval)

	runCtx, stopRun := context.WithCancel(context.Background())
	if err := janitor.Start(runCtx); err != nil {
		stopRun()
		cli.Fatal(logger, "Failed to start session janitor", err, amqpClient, repo)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		stopRun()
		if err := janitor.Stop(ctx); err != nil {
			logger.Warn("Session janitor stop error", log.FieldError, err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", log.FieldError, err)
		}
		processed, failed := activity.Stats()
		logger.Info("Activity worker stopped", "processed", processed, "failed", failed)
	})

	go func() {
		err := amqpClient.ConsumeRecordEvents(runCtx, activity.HandleRecordEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			stopRun()
			cli.Fatal(logger, "Record event consumption failed", err, amqpClient, repo)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
