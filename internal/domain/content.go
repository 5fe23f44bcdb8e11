package domain

import (
	"time"
)

// Visibility определяет, кому виден промпт. Сейчас создаётся только PUBLIC.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// DefaultAspectRatio задаёт соотношение сторон карточки в галерее.
const DefaultAspectRatio = "4:5"

// ContentItem представляет загруженный промпт вместе с изображением,
// соответствует таблице contents в бд
type ContentItem struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	Slug           string     `json:"slug" gorm:"uniqueIndex;not null"`
	Title          string     `json:"title" gorm:"not null"`
	PromptText     string     `json:"prompt" gorm:"not null"`
	NegativePrompt *string    `json:"negativePrompt,omitempty"`
	Category       string     `json:"category" gorm:"index;not null"`
	Generator      Generator  `json:"generator" gorm:"not null"`
	ImageURL       string     `json:"imageUrl" gorm:"not null"`
	ImageKey       string     `json:"imageKey" gorm:"not null"`
	ThumbnailURL   *string    `json:"thumbnailUrl,omitempty"`
	BlurDataURL    *string    `json:"blurDataUrl,omitempty"`
	Width          *int       `json:"width,omitempty"`
	Height         *int       `json:"height,omitempty"`
	AspectRatio    string     `json:"aspectRatio" gorm:"not null"`
	Visibility     Visibility `json:"visibility" gorm:"index;not null"`
	LikesCount     int        `json:"likesCount" gorm:"not null;default:0"`
	SavesCount     int        `json:"savesCount" gorm:"not null;default:0"`
	ViewsCount     int        `json:"viewsCount" gorm:"not null;default:0"`
	AuthorID       string     `json:"authorId" gorm:"index;not null;size:64"`
	CreatedAt      time.Time  `json:"createdAt" gorm:"index"`
	UpdatedAt      time.Time  `json:"updatedAt"`

	Author *Author `json:"createdBy,omitempty" gorm:"foreignKey:AuthorID"`
	Tags   []Tag   `json:"-" gorm:"many2many:content_tags;joinForeignKey:ContentID;joinReferences:TagID"`
}

func (ContentItem) TableName() string {
	return "contents"
}

// ImageSrc возвращает адрес картинки для карточки: миниатюра, если есть, иначе оригинал.
func (c *ContentItem) ImageSrc() string {
	if c.ThumbnailURL != nil && *c.ThumbnailURL != "" {
		return *c.ThumbnailURL
	}
	return c.ImageURL
}

// TagNames возвращает отображаемые имена тегов в порядке загрузки.
func (c *ContentItem) TagNames() []string {
	names := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		names = append(names, t.Name)
	}
	return names
}

// ContentTag — связующая модель Many-to-Many между ContentItem и Tag,
// соответствует таблице content_tags в бд
type ContentTag struct {
	ContentID string `gorm:"primaryKey;size:36"`
	TagID     string `gorm:"primaryKey;size:36"`
	// Position — порядок тега в том виде, в каком его прислал автор.
	Position int `gorm:"not null;default:0"`
}

func (ContentTag) TableName() string {
	return "content_tags"
}

// ImageRefs — набор ссылок на уже сохранённое изображение и его производные.
type ImageRefs struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Key          string `json:"key"`
	BlurDataURL  string `json:"blurDataUrl"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}
