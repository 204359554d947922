package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpiry(t *testing.T) {
	c := New[int](time.Hour)
	defer c.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, 30*time.Second)
	c.Set("forever", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(31 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len(), "expired entries stay until swept")

	c.cleanup()
	assert.Equal(t, 1, c.Len())
	v, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCacheDeleteAndStop(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.Set("k", "v", time.Minute)
	c.Delete("k")
	_, ok := c.Get("k")
	assert.False(t, ok)

	c.Stop()
	c.Stop()
}
