package ports

import (
	"context"

	"github.com/GoArmGo/PromptReveal/internal/messaging/payloads"
)

// OrphanCleanupPublisher публикует ключи объектов, на которые не ссылается ни одна запись
// (оригинал загружен, а сохранение метаданных упало)
type OrphanCleanupPublisher interface {
	PublishOrphanCleanup(ctx context.Context, payload payloads.OrphanCleanupPayload) error
}

// OrphanCleanupConsumer используется воркером для получения задач очистки из очереди
type OrphanCleanupConsumer interface {
	// StartConsumingOrphanCleanup начинает прослушивание очереди;
	// handler вызывается для каждого полученного сообщения
	StartConsumingOrphanCleanup(ctx context.Context, handler func(context.Context, payloads.OrphanCleanupPayload) error) error
}
