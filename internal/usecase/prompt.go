package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/domain"
	"github.com/GoArmGo/PromptReveal/internal/media"
)

// ImageProcessor строит производные изображения (реализация: media.Generator)
type ImageProcessor interface {
	Derive(data []byte) (*media.Derivatives, error)
}

// FileInput — загруженный файл в том виде, в каком его прислал браузер.
type FileInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadResult — ответ шага загрузки изображения.
type UploadResult struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Key          string `json:"key"`
	BlurDataURL  string `json:"blurDataUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Format       string `json:"format"`
	Size         int    `json:"size"`

	// ключи, реально записанные в бакет (миниатюры может не быть)
	storedKeys []string
}

// ImageRefs возвращает ссылки для шага создания промпта.
func (r *UploadResult) ImageRefs() domain.ImageRefs {
	return domain.ImageRefs{
		URL:          r.URL,
		ThumbnailURL: r.ThumbnailURL,
		Key:          r.Key,
		BlurDataURL:  r.BlurDataURL,
		Width:        r.Width,
		Height:       r.Height,
	}
}

// CreatePromptInput — данные формы создания промпта.
type CreatePromptInput struct {
	Title          string           `json:"title"`
	PromptText     string           `json:"promptText"`
	NegativePrompt string           `json:"negativePrompt,omitempty"`
	Category       string           `json:"category"`
	Generator      string           `json:"model"`
	Image          domain.ImageRefs `json:"image"`
	Tags           []string         `json:"tags,omitempty"`

	UserID     string `json:"userId,omitempty"`
	UserEmail  string `json:"userEmail,omitempty"`
	UserName   string `json:"userName,omitempty"`
	UserAvatar string `json:"userAvatar,omitempty"`
}

// CreateResult — результат создания: {success, prompt} или {success:false, error}.
type CreateResult struct {
	Success bool        `json:"success"`
	Prompt  *PromptView `json:"prompt,omitempty"`
	Error   string      `json:"error,omitempty"`

	Failure *Failure `json:"-"`
}

// IngestInput — файл и описание промпта для полного конвейера.
type IngestInput struct {
	File   FileInput
	Prompt CreatePromptInput
}

// IngestResult — итог конвейера: {success, content} или {success:false, error}.
type IngestResult struct {
	Success bool          `json:"success"`
	Content *PromptView   `json:"content,omitempty"`
	Upload  *UploadResult `json:"upload,omitempty"`
	Error   string        `json:"error,omitempty"`
	Stage   Stage         `json:"stage"`

	Failure *Failure `json:"-"`
}

// PromptView — промпт в том виде, в каком его получают страницы.
type PromptView struct {
	ID             string           `json:"id"`
	Slug           string           `json:"slug"`
	Title          string           `json:"title"`
	Prompt         string           `json:"prompt"`
	NegativePrompt *string          `json:"negativePrompt"`
	Category       string           `json:"category"`
	Generator      domain.Generator `json:"generator"`
	GeneratorLabel string           `json:"generatorLabel"`
	ImageSrc       string           `json:"imageSrc"`
	ImageURL       string           `json:"imageUrl"`
	ThumbnailURL   *string          `json:"thumbnailUrl"`
	BlurDataURL    *string          `json:"blurDataUrl"`
	Width          *int             `json:"width,omitempty"`
	Height         *int             `json:"height,omitempty"`
	AspectRatio    string           `json:"aspectRatio"`
	LikesCount     int              `json:"likesCount"`
	SavesCount     int              `json:"savesCount"`
	ViewsCount     int              `json:"viewsCount"`
	CreatedAt      time.Time        `json:"createdAt"`
	CreatedBy      *domain.Author   `json:"createdBy"`
	Tags           []string         `json:"tags"`
}

// NewPromptView собирает представление из записи бд.
func NewPromptView(item *domain.ContentItem) PromptView {
	return PromptView{
		ID:             item.ID,
		Slug:           item.Slug,
		Title:          item.Title,
		Prompt:         item.PromptText,
		NegativePrompt: item.NegativePrompt,
		Category:       item.Category,
		Generator:      item.Generator,
		GeneratorLabel: item.Generator.Label(),
		ImageSrc:       item.ImageSrc(),
		ImageURL:       item.ImageURL,
		ThumbnailURL:   item.ThumbnailURL,
		BlurDataURL:    item.BlurDataURL,
		Width:          item.Width,
		Height:         item.Height,
		AspectRatio:    item.AspectRatio,
		LikesCount:     item.LikesCount,
		SavesCount:     item.SavesCount,
		ViewsCount:     item.ViewsCount,
		CreatedAt:      item.CreatedAt,
		CreatedBy:      item.Author,
		Tags:           item.TagNames(),
	}
}

// ListQuery задаёт параметры выдачи галереи.
type ListQuery struct {
	Sort     ports.SortOrder
	Limit    int
	Offset   int
	Category string
}

// HomeView содержит данные главной страницы.
type HomeView struct {
	Latest  []PromptView `json:"latest"`
	Popular []PromptView `json:"popular"`
	Total   int64        `json:"total"`
}

// PromptUseCase определяет бизнес-логику загрузки и чтения промптов
type PromptUseCase interface {
	// UploadImage проверяет файл, строит производные и кладёт оригинал и миниатюру в хранилище
	UploadImage(ctx context.Context, in FileInput) (*UploadResult, error)

	// CreatePrompt сохраняет промпт по уже загруженному изображению и сбрасывает кэш представлений
	CreatePrompt(ctx context.Context, in CreatePromptInput) CreateResult

	// Ingest выполняет весь конвейер: загрузка изображения и сохранение промпта
	Ingest(ctx context.Context, in IngestInput) IngestResult

	ListPrompts(ctx context.Context, q ListQuery) ([]PromptView, error)
	ListByCategory(ctx context.Context, category string) ([]PromptView, error)
	GetPrompt(ctx context.Context, id string) (*PromptView, error)
	Home(ctx context.Context) (*HomeView, error)

	// CategoryCards объединяет статистику категорий с таблицей метаданных; считается при каждом чтении
	CategoryCards(ctx context.Context) ([]domain.CategoryCard, error)
	CategoryStats(ctx context.Context) ([]domain.CategoryStat, error)
}
