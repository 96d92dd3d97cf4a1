package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddIsIdempotent(t *testing.T) {
	r := NewUserRegistry(filepath.Join(t.TempDir(), "users.json"), zerolog.Nop())

	require.NoError(t, r.Add(7))
	require.NoError(t, r.Add(7))
	assert.Equal(t, 1, r.Count())
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	r := NewUserRegistry(path, zerolog.Nop())

	for _, id := range []int64{3, 1, 2, 1} {
		require.NoError(t, r.Add(id))
	}
	assert.Equal(t, []int64{3, 1, 2}, r.Load())

	// Survives a restart.
	again := NewUserRegistry(path, zerolog.Nop())
	assert.Equal(t, []int64{3, 1, 2}, again.Load())
}

func TestLoadMissingUsersFileIsEmpty(t *testing.T) {
	r := NewUserRegistry(filepath.Join(t.TempDir(), "users.json"), zerolog.Nop())
	assert.Empty(t, r.Load())
	assert.Equal(t, 0, r.Count())
}
