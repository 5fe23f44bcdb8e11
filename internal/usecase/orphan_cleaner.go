package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/messaging/payloads"
	"github.com/GoArmGo/PromptReveal/internal/metrics"
)

// OrphanCleaner удаляет объекты бакета, для которых не удалось сохранить промпт.
type OrphanCleaner struct {
	files   ports.FileStorage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewOrphanCleaner(files ports.FileStorage, m *metrics.Metrics, logger *slog.Logger) *OrphanCleaner {
	return &OrphanCleaner{files: files, metrics: m, logger: logger}
}

// Handle удаляет все ключи задачи. Ошибки по отдельным ключам собираются вместе,
// остальные ключи всё равно удаляются.
func (c *OrphanCleaner) Handle(ctx context.Context, payload payloads.OrphanCleanupPayload) error {
	if c.files == nil {
		return ErrStorageNotConfigured
	}

	start := time.Now()
	var errs []error
	deleted := 0
	for _, key := range payload.Keys {
		if key == "" {
			continue
		}
		if err := c.files.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("ошибка при удалении %s: %w", key, err))
			continue
		}
		deleted++
	}
	c.metrics.AddOrphans("deleted", deleted)

	if err := errors.Join(errs...); err != nil {
		c.logger.Warn("orphan cleanup incomplete",
			"deleted", deleted,
			"failed", len(errs),
			"reason", payload.Reason,
			"error", err,
		)
		return err
	}

	c.logger.Info("orphan objects removed",
		"keys", payload.Keys,
		"reason", payload.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
