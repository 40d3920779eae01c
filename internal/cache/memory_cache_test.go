package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetJSON(ctx, "s1", map[string]int{"question_count": 2}, time.Minute))

	var got map[string]int
	hit, err := c.GetJSON(ctx, "s1", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, got["question_count"])

	now = now.Add(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "s1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCacheDel(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	require.NoError(t, c.SetJSON(ctx, "k", "v", 0))
	require.NoError(t, c.Del(ctx, "k"))

	var s string
	hit, _ := c.GetJSON(ctx, "k", &s)
	assert.False(t, hit)
}
