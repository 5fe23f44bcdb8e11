package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
)

const (
	// DefaultListLimit — размер страницы, если limit не задан.
	DefaultListLimit = 100
	// MaxListLimit — верхняя граница limit для одной страницы.
	MaxListLimit = 500
)

// PostgresStorage реализует ports.ContentStorage поверх GORM
type PostgresStorage struct {
	db               *gorm.DB
	logger           *slog.Logger
	guestEmailDomain string
	now              func() time.Time
}

// NewPostgresStorage создает хранилище промптов. guestEmailDomain используется
// для синтетического email автора, известного только по id.
func NewPostgresStorage(db *gorm.DB, logger *slog.Logger, guestEmailDomain string) *PostgresStorage {
	return &PostgresStorage{
		db:               db,
		logger:           logger,
		guestEmailDomain: guestEmailDomain,
		now:              time.Now,
	}
}

var _ ports.ContentStorage = (*PostgresStorage)(nil)

// CreateContent в одной транзакции находит или создаёт теги, вставляет промпт,
// связывает его с тегами и возвращает запись вместе с автором и тегами.
func (s *PostgresStorage) CreateContent(ctx context.Context, in ports.NewContent) (*domain.ContentItem, error) {
	start := time.Now()

	if strings.TrimSpace(in.AuthorID) == "" {
		return nil, ErrAuthorIdentityRequired
	}

	now := s.now().UTC()
	item := &domain.ContentItem{
		ID:          uuid.NewString(),
		Slug:        domain.ContentSlug(in.Title, now),
		Title:       in.Title,
		PromptText:  in.PromptText,
		Category:    in.Category,
		Generator:   in.Generator,
		ImageURL:    in.Image.URL,
		ImageKey:    in.Image.Key,
		AspectRatio: domain.DefaultAspectRatio,
		Visibility:  domain.VisibilityPublic,
		AuthorID:    in.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.NegativePrompt != "" {
		item.NegativePrompt = &in.NegativePrompt
	}
	if in.Image.ThumbnailURL != "" {
		item.ThumbnailURL = &in.Image.ThumbnailURL
	}
	if in.Image.BlurDataURL != "" {
		item.BlurDataURL = &in.Image.BlurDataURL
	}
	if in.Image.Width > 0 && in.Image.Height > 0 {
		w, h := in.Image.Width, in.Image.Height
		item.Width, item.Height = &w, &h
	}

	var created domain.ContentItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.Tags)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return fmt.Errorf("ошибка при сохранении промпта: %w", err)
		}

		for i, tag := range tags {
			link := domain.ContentTag{ContentID: item.ID, TagID: tag.ID, Position: i}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return fmt.Errorf("ошибка при связывании промпта с тегом %q: %w", tag.Slug, err)
			}
		}

		if err := tx.Preload("Author").First(&created, "id = ?", item.ID).Error; err != nil {
			return fmt.Errorf("ошибка при чтении созданного промпта: %w", err)
		}
		created.Tags = tags
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create content", "title", in.Title, "author_id", in.AuthorID, "error", err)
		return nil, err
	}

	s.logger.Info("content created",
		"id", created.ID,
		"slug", created.Slug,
		"tags", len(created.Tags),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &created, nil
}

// resolveTags реализует connect-or-create по slug, сохраняя порядок входных имён.
func resolveTags(tx *gorm.DB, names []string) ([]domain.Tag, error) {
	names = domain.NormalizeTags(names)
	tags := make([]domain.Tag, 0, len(names))

	for _, name := range names {
		slug := domain.TagSlug(name)
		candidate := domain.Tag{ID: uuid.NewString(), Name: name, Slug: slug}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&candidate).Error
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании тега %q: %w", slug, err)
		}

		var stored domain.Tag
		if err := tx.Where("slug = ?", slug).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("ошибка при получении тега %q: %w", slug, err)
		}
		tags = append(tags, stored)
	}
	return tags, nil
}

// ListPublic возвращает публичные промпты: newest сортирует по дате создания, popular по лайкам.
func (s *PostgresStorage) ListPublic(ctx context.Context, opts ports.ListOptions) ([]domain.ContentItem, error) {
	start := time.Now()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	order := "created_at DESC, id DESC"
	if opts.Sort == ports.SortPopular {
		order = "likes_count DESC, created_at DESC, id DESC"
	}

	var items []domain.ContentItem
	result := s.withRelations(ctx).
		Where("visibility = ?", domain.VisibilityPublic).
		Order(order).
		Limit(limit).
		Offset(offset).
		Find(&items)
	if result.Error != nil {
		s.logger.Error("failed to list public content", "sort", opts.Sort, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении списка промптов: %w", result.Error)
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}

	s.logger.Debug("public content listed",
		"sort", opts.Sort,
		"count", len(items),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return items, nil
}

// ListPublicByCategory возвращает публичные промпты категории без учёта регистра.
func (s *PostgresStorage) ListPublicByCategory(ctx context.Context, category string) ([]domain.ContentItem, error) {
	var items []domain.ContentItem
	result := s.withRelations(ctx).
		Where("visibility = ? AND LOWER(category) = ?", domain.VisibilityPublic, strings.ToLower(strings.TrimSpace(category))).
		Order("created_at DESC, id DESC").
		Find(&items)
	if result.Error != nil {
		s.logger.Error("failed to list content by category", "category", category, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении промптов категории: %w", result.Error)
	}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID возвращает промпт по id или nil, если его нет.
func (s *PostgresStorage) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	var item domain.ContentItem
	result := s.withRelations(ctx).First(&item, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			s.logger.Warn("content not found by id", "id", id)
			return nil, nil
		}
		s.logger.Error("failed to get content by id", "id", id, "error", result.Error)
		return nil, fmt.Errorf("ошибка при получении промпта по ID: %w", result.Error)
	}
	items := []domain.ContentItem{item}
	if err := s.attachTags(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// CategoryStats группирует публичные промпты по категории (по убыванию количества)
// и прикладывает изображение самого свежего промпта каждой категории.
func (s *PostgresStorage) CategoryStats(ctx context.Context) ([]domain.CategoryStat, error) {
	start := time.Now()

	type countRow struct {
		Category string
		Total    int
	}
	var counts []countRow
	err := s.db.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Select("category, COUNT(*) AS total").
		Where("visibility = ?", domain.VisibilityPublic).
		Group("category").
		Order("total DESC, category ASC").
		Scan(&counts).Error
	if err != nil {
		s.logger.Error("failed to count content by category", "error", err)
		return nil, fmt.Errorf("ошибка при подсчёте промптов по категориям: %w", err)
	}

	stats := make([]domain.CategoryStat, 0, len(counts))
	if len(counts) == 0 {
		return stats, nil
	}

	type imageRow struct {
		Category     string
		ImageURL     string
		ThumbnailURL *string
		BlurDataURL  *string
	}
	var recent []imageRow
	err = s.db.WithContext(ctx).
		Model(&domain.ContentItem{}).
		Select("category, image_url, thumbnail_url, blur_data_url").
		Where("visibility = ?", domain.VisibilityPublic).
		Order("created_at DESC, id DESC").
		Scan(&recent).Error
	if err != nil {
		s.logger.Error("failed to load category images", "error", err)
		return nil, fmt.Errorf("ошибка при получении изображений категорий: %w", err)
	}

	latest := make(map[string]imageRow, len(counts))
	for _, r := range recent {
		key := strings.ToLower(r.Category)
		if _, ok := latest[key]; !ok {
			latest[key] = r
		}
	}

	for _, c := range counts {
		stat := domain.CategoryStat{Category: c.Category, Count: c.Total}
		if img, ok := latest[strings.ToLower(c.Category)]; ok {
			src := img.ImageURL
			if img.ThumbnailURL != nil && *img.ThumbnailURL != "" {
				src = *img.ThumbnailURL
			}
			url := img.ImageURL
			stat.ImageSrc = &src
			stat.ImageURL = &url
			stat.BlurDataURL = img.BlurDataURL
		}
		stats = append(stats, stat)
	}

	s.logger.Debug("category stats computed",
		"categories", len(stats),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// Count возвращает общее количество промптов.
func (s *PostgresStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&domain.ContentItem{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте промптов: %w", err)
	}
	return n, nil
}

func (s *PostgresStorage) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Author")
}

type contentTagRow struct {
	ContentID string
	ID        string
	Name      string
	Slug      string
}

// attachTags подгружает теги одним запросом в порядке content_tags.position,
// тем же, что возвращает CreateContent.
func (s *PostgresStorage) attachTags(ctx context.Context, items []domain.ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	var rows []contentTagRow
	err := s.db.WithContext(ctx).
		Table("content_tags").
		Select("content_tags.content_id, tags.id, tags.name, tags.slug").
		Joins("JOIN tags ON tags.id = content_tags.tag_id").
		Where("content_tags.content_id IN ?", ids).
		Order("content_tags.position ASC, tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		s.logger.Error("failed to load content tags", "count", len(ids), "error", err)
		return fmt.Errorf("ошибка при получении тегов: %w", err)
	}

	byContent := make(map[string][]domain.Tag, len(items))
	for _, r := range rows {
		byContent[r.ContentID] = append(byContent[r.ContentID], domain.Tag{ID: r.ID, Name: r.Name, Slug: r.Slug})
	}
	for i := range items {
		items[i].Tags = byContent[items[i].ID]
	}
	return nil
}
