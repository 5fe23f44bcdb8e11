package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxSlugBase = 50

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	spaceRun    = regexp.MustCompile(`\s+`)
)

// Slugify переводит заголовок в нижний регистр, схлопывает серии
// не-буквенно-цифровых символов в один дефис, обрезает дефисы по краям
// и ограничивает результат 50 символами.
func Slugify(title string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugBase {
		s = s[:maxSlugBase]
	}
	return s
}

// ContentSlug добавляет к Slugify(title) суффикс из времени создания в base36.
func ContentSlug(title string, at time.Time) string {
	return Slugify(title) + "-" + strconv.FormatInt(at.UnixMilli(), 36)
}

// TagSlug: имя тега в нижнем регистре, пробельные серии заменены на дефис.
func TagSlug(name string) string {
	return spaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// NormalizeTags обрезает пробелы, выкидывает пустые значения и дубликаты по slug,
// сохраняя порядок первого появления.
func NormalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		slug := TagSlug(n)
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, n)
	}
	return out
}

// SplitTags разбирает строку тегов из формы ("neon, cyberpunk").
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}
