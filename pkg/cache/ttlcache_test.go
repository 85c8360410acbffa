package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_InsertGet(t *testing.T) {
	c := New[int64](50 * time.Millisecond)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Insert("k", 42)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := New[int64](10 * time.Millisecond)
	c.Insert("k", 1)

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_Remove(t *testing.T) {
	c := New[int64](time.Minute)
	c.Insert("k", 7)
	c.Remove("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}
