package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/GoArmGo/PromptReveal/internal/handler"
)

const shutdownTimeout = 30 * time.Second

// runServer запускает HTTP сервер и ждёт отмены контекста
func (a *App) runServer(ctx context.Context) error {
	a.warmUp(ctx)

	promptHandler := handler.NewPromptHandler(a.promptUseCase, a.uploadLimiter, a.logger)
	router := handler.NewRouter(promptHandler, a.metrics, a.Config.RequestTimeout, a.logger)

	serverAddr := fmt.Sprintf(":%s", a.Config.ServerPort)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", serverAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка при запуске сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received, stopping http server")

	ctxServer, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxServer); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.logger.Info("http server stopped")
	return nil
}

// warmUp проверяет бакет и базу при старте. Ошибки только логируются:
// сервер отдаёт галерею, даже если хранилище недоступно.
func (a *App) warmUp(ctx context.Context) {
	if a.files == nil {
		a.logger.Warn("object storage is not configured, uploads will be rejected")
	} else {
		start := time.Now()
		if err := a.files.EnsureBucket(ctx); err != nil {
			a.logger.Warn("bucket check failed at startup", "error", err)
		} else {
			a.logger.Info("bucket ready", "duration_ms", time.Since(start).Milliseconds())
		}
	}

	if a.contents == nil {
		return
	}
	total, err := a.contents.Count(ctx)
	switch {
	case err != nil:
		a.logger.Warn("failed to count prompts at startup", "error", err)
	case total == 0:
		a.logger.Info("database is empty, the gallery will stay blank until the first upload")
	default:
		a.logger.Info("database ready", "prompts", total)
	}
}
