package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "report:class:2024-03", map[string]int{"n": 1}, "period:2024-03"))
	require.NoError(t, m.Set(ctx, "report:class:2024-04", map[string]int{"n": 2}, "period:2024-04"))

	var got map[string]int
	ok, err := m.Get(ctx, "report:class:2024-03", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, got["n"])

	require.NoError(t, m.Invalidate(ctx, "period:2024-03"))
	ok, _ = m.Get(ctx, "report:class:2024-03", &got)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
	require.Len(t, m.Events, 1)
	assert.Equal(t, []string{"period:2024-03"}, m.Events[0].Tags)

	require.NoError(t, m.Invalidate(ctx, TagAll))
	assert.Equal(t, 0, m.Len())
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	ok, err := c.Get(context.Background(), "k", nil)
	assert.False(t, ok)
	assert.NoError(t, err)
}
