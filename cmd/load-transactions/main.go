// Command load-transactions replaces the SQLite transaction table with the
// contents of a CSV export or a Google Sheets range.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insights/internal/cli"
	"insights/internal/ingest"
	"insights/internal/log"
	"insights/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentLoader)
	cfg := cli.LoadAndValidateConfig(logger)

	source := flag.String("source", "csv", "transaction source: csv or sheets")
	csvPath := flag.String("csv", cfg.RetailCSVPath, "path of the CSV export")
	dbPath := flag.String("db", cfg.RetailDBPath, "path of the SQLite database")
	batch := flag.Int("batch", cfg.LoadBatchSize, "rows per insert transaction")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var src ingest.Source
	switch *source {
	case "csv":
		if *csvPath == "" {
			logger.Fatal(ctx, "CSV path is required", "flag", "-csv")
		}
		src = ingest.CSVSource{Path: *csvPath}
	case "sheets":
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Fatal(ctx, "Failed to initialize Sheets client", "error", err)
		}
		src = client
	default:
		logger.Fatal(ctx, "Unknown source", "source", *source)
	}

	repo := cli.InitSQLite(logger, *dbPath)
	defer repo.Close()

	start := time.Now()
	n, err := ingest.NewLoader(src, repo, *batch, logger.Logger).Run(ctx)
	if err != nil {
		logger.Error("Load failed", "error", err, "rows_written", n)
		repo.Close()
		os.Exit(1)
	}
	logger.Info("Load complete", "rows", n, "source", *source, "db", *dbPath, "duration", time.Since(start))
}
