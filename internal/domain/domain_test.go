package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Neon City":            "neon-city",
		"  Hello,   World!!  ": "hello-world",
		"--Already--Slugged--": "already-slugged",
		"Ünïcode & Symbols #1": "n-code-symbols-1",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyTruncatesTo50(t *testing.T) {
	title := strings.Repeat("abcdefghij", 8)
	assert.Len(t, Slugify(title), 50)
}

func TestContentSlugHasBase36Suffix(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	slug := ContentSlug("Neon City", at)

	assert.True(t, strings.HasPrefix(slug, "neon-city-"))
	assert.Equal(t, "neon-city-loyw3v28", slug)
}

func TestTagSlug(t *testing.T) {
	assert.Equal(t, "neon", TagSlug("Neon"))
	assert.Equal(t, "dark-fantasy", TagSlug("  Dark   Fantasy "))
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"neon", " ", "Neon", "cyberpunk", "cyber punk"})
	assert.Equal(t, []string{"neon", "cyberpunk", "cyber punk"}, got)

	assert.Equal(t, []string{"neon", "cyberpunk"}, SplitTags("neon, cyberpunk,,"))
	assert.Nil(t, SplitTags("   "))
}

func TestNormalizeGenerator(t *testing.T) {
	g, ok := NormalizeGenerator("MIDJOURNEY")
	require.True(t, ok)
	assert.Equal(t, GeneratorMidjourney, g)

	g, ok = NormalizeGenerator(" flux_pro ")
	require.True(t, ok)
	assert.Equal(t, GeneratorFluxPro, g)

	g, ok = NormalizeGenerator("NOT_A_REAL_MODEL")
	assert.False(t, ok)
	assert.Equal(t, DefaultGenerator, g)

	assert.Equal(t, "DALL·E 3", GeneratorDalle3.Label())
}

func TestJoinCategoryStatsIsCaseInsensitive(t *testing.T) {
	thumb := "https://cdn.example/thumbnails/a.jpg"
	stats := []CategoryStat{{Category: "sci-fi", Count: 3, ImageSrc: &thumb}}

	cards := JoinCategoryStats(CategoryMetadata, stats)
	require.Len(t, cards, len(CategoryMetadata))

	var sciFi, fantasy CategoryCard
	for _, c := range cards {
		switch c.ID {
		case "sci-fi":
			sciFi = c
		case "fantasy":
			fantasy = c
		}
	}
	assert.Equal(t, 3, sciFi.Count)
	assert.Equal(t, thumb, sciFi.Image)
	assert.Equal(t, 0, fantasy.Count)
	assert.Equal(t, "/images/1.webp", fantasy.Image)
}

func TestContentItemImageSrc(t *testing.T) {
	item := ContentItem{ImageURL: "orig"}
	assert.Equal(t, "orig", item.ImageSrc())

	thumb := "thumb"
	item.ThumbnailURL = &thumb
	assert.Equal(t, "thumb", item.ImageSrc())
}

func TestObjectKeysShareFileName(t *testing.T) {
	name := ObjectFileName("123", "png")
	assert.Equal(t, "prompts/123.png", OriginalKey(name))
	assert.Equal(t, "thumbnails/123.png", ThumbnailKey(name))
}
