package cache

import (
	"testing"
	"time"

	"github.com/daltunay/perfumes/models"
	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New(4, time.Minute)
	defer c.Stop()

	products := []*models.Product{{Slug: "ambroxan"}}
	key := Key("all")
	c.Set(key, products)

	got, ok := c.Get(key)
	assert.True(t, ok)
	assert.Equal(t, products, got)

	_, ok = c.Get(Key("type:any:exact:solvent"))
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c := New(4, 20*time.Millisecond)
	defer c.Stop()

	c.Set("k", []*models.Product{{Slug: "a"}})
	time.Sleep(40 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2, time.Minute)
	defer c.Stop()

	c.Set("a", nil)
	c.Set("b", nil)
	c.Set("b", nil)
	assert.Equal(t, 2, c.Len())

	c.Set("c", nil)
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("c")
	assert.True(t, ok)
}

func TestCache_Purge(t *testing.T) {
	c := New(4, time.Minute)
	defer c.Stop()

	c.Set("a", nil)
	c.Set("b", nil)
	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestKey_Stable(t *testing.T) {
	assert.Equal(t, Key("all"), Key("all"))
	assert.NotEqual(t, Key("all"), Key("tags:any:exact:amber"))
	assert.Len(t, Key("all"), 64)
}
