package app

import (
	"context"
	"errors"
	"fmt"
)

// runWorker запускает потребителя очереди очистки и удаляет объекты без записей в бд
func (a *App) runWorker(ctx context.Context) error {
	if a.orphans == nil {
		return errors.New("worker mode requires RABBITMQ_URL")
	}
	if a.orphanCleaner == nil {
		return errors.New("worker mode requires object storage settings")
	}

	a.logger.Info("worker started, waiting for orphan cleanup messages")

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := a.orphans.StartConsumingOrphanCleanup(workerCtx, a.orphanCleaner.Handle); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received, stopping worker")
	return nil
}
