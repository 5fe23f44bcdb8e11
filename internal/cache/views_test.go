package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewsGetSet(t *testing.T) {
	v := NewViews(8, time.Minute)

	_, ok := v.Get(ViewHome)
	assert.False(t, ok)

	v.Set(ViewHome, []string{"a"})
	got, ok := v.Get(ViewHome)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got)
}

func TestViewsExpire(t *testing.T) {
	v := NewViews(8, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return now }

	v.Set(ViewHome, 1)
	now = now.Add(59 * time.Second)
	_, ok := v.Get(ViewHome)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = v.Get(ViewHome)
	assert.False(t, ok)
	assert.Zero(t, v.Len())
}

func TestViewsInvalidateByViewName(t *testing.T) {
	v := NewViews(16, time.Minute)

	v.Set(ViewHome, 1)
	v.Set(Key(ViewGallery, "newest", "100", "0"), 2)
	v.Set(Key(ViewGallery, "popular", "20", "0"), 3)
	v.Set(Key("prompt", "abc"), 4)

	removed := v.Invalidate(ViewHome, ViewGallery, ViewCategories)
	assert.Equal(t, 3, removed)

	_, ok := v.Get(Key("prompt", "abc"))
	assert.True(t, ok)
	_, ok = v.Get(ViewHome)
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "home", Key(ViewHome))
	assert.Equal(t, "gallery:newest:100:0", Key(ViewGallery, "newest", "100", "0"))
}

func TestViewsSkipFillAfterInvalidate(t *testing.T) {
	v := NewViews(8, time.Minute)

	gen := v.Generation()
	v.Invalidate(ViewHome)
	assert.False(t, v.SetIfCurrent(ViewHome, "stale", gen))
	_, ok := v.Get(ViewHome)
	assert.False(t, ok)

	gen = v.Generation()
	assert.True(t, v.SetIfCurrent(ViewHome, "fresh", gen))
	got, ok := v.Get(ViewHome)
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}
