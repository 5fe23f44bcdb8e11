package domain

import "strings"

// CategoryStat — агрегат, вычисляемый при чтении: количество публичных промптов
// в категории и изображение самого свежего из них.
type CategoryStat struct {
	Category    string  `json:"category"`
	Count       int     `json:"count"`
	ImageSrc    *string `json:"imageSrc"`
	ImageURL    *string `json:"imageUrl"`
	BlurDataURL *string `json:"blurDataUrl,omitempty"`
}

// CategoryMeta — статическое описание категории для страницы категорий.
type CategoryMeta struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Color       string   `json:"color"`
	Tags        []string `json:"tags"`
}

// CategoryCard — метаданные категории, объединённые со статистикой.
type CategoryCard struct {
	CategoryMeta
	Count       int     `json:"count"`
	BlurDataURL *string `json:"blurDataUrl,omitempty"`
}

// CategoryMetadata — таблица категорий, доступных в форме загрузки.
var CategoryMetadata = []CategoryMeta{
	{
		ID: "fantasy", Name: "Fantasy", Description: "Magical worlds and mythical creatures",
		Image: "/images/1.webp", Color: "from-purple-500 to-pink-500",
		Tags: []string{"Magic", "Dragons", "Mystical"},
	},
	{
		ID: "sci-fi", Name: "Sci-Fi", Description: "Futuristic and technological themes",
		Image: "/images/2.webp", Color: "from-blue-500 to-cyan-500",
		Tags: []string{"Future", "Tech", "Space"},
	},
	{
		ID: "nature", Name: "Nature", Description: "Landscapes and natural beauty",
		Image: "/images/3.webp", Color: "from-green-500 to-emerald-500",
		Tags: []string{"Forest", "Mountains", "Ocean"},
	},
	{
		ID: "abstract", Name: "Abstract", Description: "Creative and artistic expressions",
		Image: "/images/4.webp", Color: "from-orange-500 to-red-500",
		Tags: []string{"Art", "Colors", "Patterns"},
	},
	{
		ID: "portrait", Name: "Portrait", Description: "Characters and people",
		Image: "/images/5.webp", Color: "from-pink-500 to-rose-500",
		Tags: []string{"People", "Faces", "Characters"},
	},
	{
		ID: "architecture", Name: "Architecture", Description: "Buildings and structures",
		Image: "/images/6.webp", Color: "from-gray-500 to-slate-500",
		Tags: []string{"Buildings", "Cities", "Design"},
	},
}

// JoinCategoryStats сопоставляет таблицу метаданных со статистикой без учёта регистра.
// Категория без промптов получает count=0 и картинку из метаданных.
func JoinCategoryStats(meta []CategoryMeta, stats []CategoryStat) []CategoryCard {
	byName := make(map[string]CategoryStat, len(stats))
	for _, s := range stats {
		byName[strings.ToLower(s.Category)] = s
	}

	cards := make([]CategoryCard, 0, len(meta))
	for _, m := range meta {
		card := CategoryCard{CategoryMeta: m}
		if s, ok := byName[strings.ToLower(m.Name)]; ok {
			card.Count = s.Count
			card.BlurDataURL = s.BlurDataURL
			if s.ImageSrc != nil && *s.ImageSrc != "" {
				card.Image = *s.ImageSrc
			}
		}
		cards = append(cards, card)
	}
	return cards
}
