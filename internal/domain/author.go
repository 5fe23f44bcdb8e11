package domain

import "time"

// Author представляет автора промпта.
// Соответствует таблице 'authors' в базе данных.
type Author struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      *string   `json:"name"`
	Avatar    *string   `json:"avatar"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

func (Author) TableName() string {
	return "authors"
}

// Tag представляет модель тега,
// соответствует таблице tags в бд
type Tag struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"-"`
}

func (Tag) TableName() string {
	return "tags"
}
