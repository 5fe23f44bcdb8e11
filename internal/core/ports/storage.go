package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoArmGo/PromptReveal/internal/domain"
)

// FileStorage определяет методы объектного хранилища для изображений
type FileStorage interface {
	// EnsureBucket идемпотентно проверяет, что бакет существует, и создаёт его при необходимости
	EnsureBucket(ctx context.Context) error

	// Put записывает байты строго под ключом key; существующий объект не перезаписывается
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Delete удаляет объект; нужен для очистки "осиротевших" файлов
	Delete(ctx context.Context, key string) error

	// PublicURL без побочных эффектов возвращает публичный адрес объекта
	PublicURL(key string) string
}

// StorageCategory — грубая классификация ошибок хранилища для пользователя.
type StorageCategory string

const (
	StorageTooLarge            StorageCategory = "too_large"
	StorageBucketMisconfigured StorageCategory = "bucket_misconfigured"
	StoragePermissionDenied    StorageCategory = "permission_denied"
	StorageKeyExists           StorageCategory = "key_exists"
	StorageGeneric             StorageCategory = "generic"
)

// Message возвращает короткое сообщение для пользователя.
func (c StorageCategory) Message() string {
	switch c {
	case StorageTooLarge:
		return "File exceeds the storage size limit."
	case StorageBucketMisconfigured:
		return "Storage bucket is not configured correctly."
	case StoragePermissionDenied:
		return "Server does not have permission to write to storage."
	case StorageKeyExists:
		return "A file with the same name already exists. Please try again."
	default:
		return "Upload failed"
	}
}

// StorageError — ошибка хранилища с уже определённой категорией.
type StorageError struct {
	Op       string
	Key      string
	Category StorageCategory
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q (%s): %v", e.Op, e.Key, e.Category, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// StorageCategoryOf достаёт категорию из цепочки ошибок; для прочих ошибок StorageGeneric.
func StorageCategoryOf(err error) StorageCategory {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Category
	}
	return StorageGeneric
}

// AuthorInput — то, что известно об авторе в момент создания промпта.
type AuthorInput struct {
	ID     string
	Email  string
	Name   string
	Avatar string
}

// NewContent — данные для вставки нового промпта.
type NewContent struct {
	AuthorID       string
	Title          string
	PromptText     string
	NegativePrompt string
	Category       string
	Generator      domain.Generator
	Image          domain.ImageRefs
	Tags           []string
}

// SortOrder — порядок выдачи публичных промптов.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortPopular SortOrder = "popular"
)

// ListOptions — параметры постраничного чтения.
type ListOptions struct {
	Sort   SortOrder
	Limit  int
	Offset int
}

// ContentStorage определяет методы для взаимодействия с хранилищем промптов
type ContentStorage interface {
	ResolveAuthor(ctx context.Context, in AuthorInput) (string, error)
	CreateContent(ctx context.Context, in NewContent) (*domain.ContentItem, error)
	ListPublic(ctx context.Context, opts ListOptions) ([]domain.ContentItem, error)
	ListPublicByCategory(ctx context.Context, category string) ([]domain.ContentItem, error)
	GetByID(ctx context.Context, id string) (*domain.ContentItem, error)
	CategoryStats(ctx context.Context) ([]domain.CategoryStat, error)
	Count(ctx context.Context) (int64, error)
}
