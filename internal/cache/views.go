// Package cache хранит готовые ответы read-эндпоинтов (главная, галерея)
// до следующего создания промпта.
package cache

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Имена представлений, которые сбрасываются после создания промпта.
const (
	ViewHome       = "home"
	ViewGallery    = "gallery"
	ViewCategories = "categories"
)

const (
	defaultSize = 256
	defaultTTL  = time.Minute
)

type entry struct {
	value    any
	storedAt time.Time
}

// Views — LRU-кэш с TTL. Ключ имеет вид "<view>" или "<view>:<параметры>".
// Каждый Invalidate увеличивает поколение; SetIfCurrent не пишет значение,
// прочитанное до сброса.
type Views struct {
	cache *lru.Cache[string, entry]
	ttl   time.Duration
	now   func() time.Time

	mu         sync.Mutex
	generation uint64
}

// NewViews создает кэш; нулевые значения заменяются значениями по умолчанию.
func NewViews(size int, ttl time.Duration) *Views {
	if size <= 0 {
		size = defaultSize
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c, _ := lru.New[string, entry](size)
	return &Views{cache: c, ttl: ttl, now: time.Now}
}

// Key собирает ключ представления из имени и параметров.
func Key(view string, parts ...string) string {
	if len(parts) == 0 {
		return view
	}
	return view + ":" + strings.Join(parts, ":")
}

// Get возвращает значение, если оно есть и не устарело.
func (v *Views) Get(key string) (any, bool) {
	e, ok := v.cache.Get(key)
	if !ok {
		return nil, false
	}
	if v.now().Sub(e.storedAt) >= v.ttl {
		v.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set сохраняет значение под ключом.
func (v *Views) Set(key string, value any) {
	v.cache.Add(key, entry{value: value, storedAt: v.now()})
}

// Generation возвращает текущее поколение. Его берут до чтения из БД.
func (v *Views) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// SetIfCurrent сохраняет значение, только если с момента gen не было Invalidate.
func (v *Views) SetIfCurrent(key string, value any, gen uint64) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.generation != gen {
		return false
	}
	v.cache.Add(key, entry{value: value, storedAt: v.now()})
	return true
}

// Invalidate удаляет все ключи перечисленных представлений.
func (v *Views) Invalidate(views ...string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.generation++

	removed := 0
	for _, key := range v.cache.Keys() {
		name, _, _ := strings.Cut(key, ":")
		for _, view := range views {
			if name == view {
				if v.cache.Remove(key) {
					removed++
				}
				break
			}
		}
	}
	return removed
}

// Len возвращает число записей (включая устаревшие, ещё не вытесненные).
func (v *Views) Len() int {
	return v.cache.Len()
}
