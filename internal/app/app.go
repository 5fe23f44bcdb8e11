package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/PromptReveal/internal/config"
	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/metrics"
	"github.com/GoArmGo/PromptReveal/internal/usecase"
)

// App хранит собранные зависимости и запускает сервер или воркер.
type App struct {
	Config *config.Config
	logger *slog.Logger

	promptUseCase usecase.PromptUseCase
	orphanCleaner *usecase.OrphanCleaner
	contents      ports.ContentStorage
	files         ports.FileStorage
	orphans       ports.OrphanCleanupConsumer
	metrics       *metrics.Metrics
	uploadLimiter chan struct{}

	closers []func()
}

// Deps — всё, что собирает di.BuildApp.
type Deps struct {
	PromptUseCase usecase.PromptUseCase
	OrphanCleaner *usecase.OrphanCleaner
	Contents      ports.ContentStorage
	Files         ports.FileStorage
	Orphans       ports.OrphanCleanupConsumer
	Metrics       *metrics.Metrics
	UploadLimiter chan struct{}

	// Closers вызываются при завершении в обратном порядке.
	Closers []func()
}

func NewApp(cfg *config.Config, logger *slog.Logger, deps Deps) *App {
	return &App{
		Config:        cfg,
		logger:        logger,
		promptUseCase: deps.PromptUseCase,
		orphanCleaner: deps.OrphanCleaner,
		contents:      deps.Contents,
		files:         deps.Files,
		orphans:       deps.Orphans,
		metrics:       deps.Metrics,
		uploadLimiter: deps.UploadLimiter,
		closers:       deps.Closers,
	}
}

// LoggerIns возвращает основной логгер приложения.
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run запускает приложение в режиме server или worker и блокируется до сигнала завершения.
func (a *App) Run(ctx context.Context, mode string) error {
	// канал для graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting app", "mode", mode)

	var err error
	switch mode {
	case "server":
		err = a.runServer(ctx)
	case "worker":
		err = a.runWorker(ctx)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'server' или 'worker')", mode)
	}

	// аккуратно закрываем ресурсы
	a.Shutdown()

	if err != nil {
		return err
	}
	a.logger.Info("app stopped")
	return nil
}

// Shutdown закрывает все ресурсы приложения
func (a *App) Shutdown() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
