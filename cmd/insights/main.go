package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"insights/internal/backend"
	"insights/internal/cli"
	apphttp "insights/internal/http"
	"insights/internal/llm"
	"insights/internal/log"
	"insights/internal/router"
	"insights/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Fatal(ctx, "Invalid backend configuration", "error", err)
	}
	result, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
	}

	var (
		parser   llm.IntentParser
		answerer llm.AnswerGenerator
	)
	if cfg.ChatEnabled() {
		gemini := llm.NewGemini(llm.GeminiConfig{
			APIKey:        cfg.GeminiAPIKey,
			Endpoint:      cfg.GeminiEndpoint,
			IntentModel:   cfg.GeminiModelIntent,
			ResponseModel: cfg.GeminiModelResponse,
			Timeout:       cfg.RequestTimeout,
		})
		parser, answerer = gemini, gemini
		logger.Info("Chat enabled", "intent_model", cfg.GeminiModelIntent, "response_model", cfg.GeminiModelResponse)
	} else {
		logger.Info("Chat disabled - no GEMINI_API_KEY provided")
	}

	svc := services.NewQueryService(router.New(result.Store), result.Publisher, parser, answerer)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:                logger.WithComponent(log.ComponentHTTP),
		Ready:                 result.Ready,
		RequestTimeout:        cfg.RequestTimeout,
		ChatRequestsPerMinute: cfg.ChatRequestsPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting insights server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"audit_enabled", result.Publisher != nil,
		"chat_enabled", svc.ChatEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(ctx, "Server error", "error", err, "port", cfg.Port)
	}

	<-shutdownCtx.Done()
	<-done
	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}
	logger.Info("Server stopped gracefully")
}
