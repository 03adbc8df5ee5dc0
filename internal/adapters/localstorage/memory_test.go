package localstorage_adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_ScopesAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Set(ctx, "client-a", "theme", "dark"))
	require.NoError(t, s.Set(ctx, "client-b", "theme", "light"))

	v, ok, err := s.Get(ctx, "client-a", "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, s.Remove(ctx, "client-a", "theme"))
	_, ok, err = s.Get(ctx, "client-a", "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	v, ok, _ = s.Get(ctx, "client-b", "theme")
	assert.True(t, ok)
	assert.Equal(t, "light", v)
}

func TestMemoryStorage_RemoveMissingKey(t *testing.T) {
	s := NewMemoryStorage()
	assert.NoError(t, s.Remove(context.Background(), "nobody", "token"))
}
