package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"emaildraft/internal/config"
	"emaildraft/internal/draft"
	"emaildraft/internal/httpserver"
	"emaildraft/internal/llm"
	"emaildraft/internal/transport"
	"emaildraft/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	if !llm.IsKnownModel(cfg.Gemini.Model) {
		logger.Warn("unknown gemini model, using as is", slog.String("model", cfg.Gemini.Model))
	}

	// Клиент модели создаётся один раз и разделяется всеми запросами.
	httpClient := transport.NewHTTPClient(cfg.RequestTimeout)
	model := llm.NewGeminiClient(cfg.Gemini, httpClient, logger,
		llm.WithSystemInstruction(draft.SystemInstruction),
		llm.WithGenerationConfig(llm.DefaultGenerationConfig()),
	)

	drafts := draft.NewService(model, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Logger: logger,
		Pages:  web.NewHandler(drafts, logger),
	})

	// WriteTimeout не ставим: ответ ждёт модель столько, сколько позволяет транспорт.
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.HTTPAddr),
			slog.String("model", cfg.Gemini.Model))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
}
