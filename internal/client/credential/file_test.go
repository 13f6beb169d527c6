package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "nested", "token"))
}

func TestFileStore_LoadMissing(t *testing.T) {
	s := newStore(t)
	token, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileStore_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "tok-123"))

	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	info, err := os.Stat(s.path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, s.Clear(ctx))
	token, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// Clear is idempotent.
	require.NoError(t, s.Clear(ctx))
}

func TestFileStore_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Save(ctx, "first"))
	require.NoError(t, s.Save(ctx, "second"))

	token, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestFileStore_LoadTrimsWhitespace(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.path), 0o700))
	require.NoError(t, os.WriteFile(s.path, []byte("tok-9\n"), 0o600))

	token, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)
}
