package main

import (
	"context"
	"errors"
	"time"

	"insights/internal/amqp"
	"insights/internal/cli"
	"insights/internal/log"
	"insights/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting insights-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.AuditEnabled() {
		logger.Fatal(context.Background(), "AMQP_URL is required for the audit worker")
	}

	repo := cli.InitSQLite(logger, cfg.RetailDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Fatal(context.Background(), "Failed to initialize AMQP client", "error", err)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	auditWorker := worker.NewAuditWorker(repo)
	if err := auditWorker.StartupCheck(ctx); err != nil {
		logger.Fatal(ctx, "Startup check failed", "error", err)
	}

	err = client.ConsumeQueryAudit(log.WithLogger(ctx, logger), auditWorker.HandleQueryMessage)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
