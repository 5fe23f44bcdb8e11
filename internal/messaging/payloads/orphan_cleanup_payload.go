package payloads

import "time"

// OrphanCleanupPayload описывает объекты в хранилище, оставшиеся без записи в бд
// после неудачного сохранения метаданных.
type OrphanCleanupPayload struct {
	Keys       []string  `json:"keys"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
