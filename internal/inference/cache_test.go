package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_ExpiresAfterTTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewCache(time.Hour, 10, nil)
	c.now = func() time.Time { return now }

	c.Put("k", &InferredContext{Commander: "Talrand, Sky Summoner"})
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "Talrand, Sky Summoner", got.Commander)

	now = now.Add(time.Hour + time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_EvictsOldestInsertion(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewCache(time.Hour, 2, nil)
	c.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		c.Put(k, &InferredContext{})
		now = now.Add(time.Second)
	}

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestCacheKey(t *testing.T) {
	base := CacheKey("1 sol ring\n", "Talrand", FormatCommander, "msg", PlanDefault, []string{"U"}, "usd")

	assert.Equal(t, base, CacheKey("1 sol ring\n", " talrand ", FormatCommander, "msg", PlanDefault, []string{"u"}, "USD"))
	assert.NotEqual(t, base, CacheKey("1 sol ring\n", "Talrand", FormatCommander, "msg", PlanBudget, []string{"U"}, "usd"))
	assert.NotEqual(t, base, CacheKey("2 sol ring\n", "Talrand", FormatCommander, "msg", PlanDefault, []string{"U"}, "usd"))
}
