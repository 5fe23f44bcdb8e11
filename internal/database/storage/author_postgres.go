package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
)

// ErrAuthorIdentityRequired — не передан ни id, ни email автора.
var ErrAuthorIdentityRequired = errors.New("author id or email is required")

// ResolveAuthor находит или создаёт автора и возвращает его id.
// С id делается upsert по id (email синтетический, если не передан), иначе upsert по email.
// Обновляются только переданные имя и аватар; id существующего автора не меняется.
func (s *PostgresStorage) ResolveAuthor(ctx context.Context, in ports.AuthorInput) (string, error) {
	start := time.Now()

	id := strings.TrimSpace(in.ID)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if id == "" && email == "" {
		return "", ErrAuthorIdentityRequired
	}

	conflictColumn := "email"
	if id != "" {
		conflictColumn = "id"
		if email == "" {
			email = id + "@" + s.guestEmailDomain
		}
	} else {
		id = uuid.NewString()
	}

	now := s.now().UTC()
	author := domain.Author{
		ID:        id,
		Email:     email,
		Name:      optional(in.Name),
		Avatar:    optional(in.Avatar),
		CreatedAt: now,
		UpdatedAt: now,
	}

	var updates []string
	if author.Name != nil {
		updates = append(updates, "name")
	}
	if author.Avatar != nil {
		updates = append(updates, "avatar")
	}
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: conflictColumn}}}
	if len(updates) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(append(updates, "updated_at"))
	} else {
		onConflict.DoNothing = true
	}

	if err := s.db.WithContext(ctx).Clauses(onConflict).Create(&author).Error; err != nil {
		s.logger.Error("failed to upsert author", "by", conflictColumn, "error", err)
		return "", fmt.Errorf("ошибка при сохранении автора: %w", err)
	}

	var stored domain.Author
	query := s.db.WithContext(ctx).Select("id")
	if conflictColumn == "id" {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("email = ?", email)
	}
	if err := query.First(&stored).Error; err != nil {
		return "", fmt.Errorf("ошибка при получении автора: %w", err)
	}

	s.logger.Debug("author resolved",
		"author_id", stored.ID,
		"by", conflictColumn,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stored.ID, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
