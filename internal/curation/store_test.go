package curation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Defaults(t *testing.T) {
	s, err := NewStore("", nil)
	require.NoError(t, err)
	assert.True(t, s.Tables().IsBanned("Commander", "Mana Crypt"))
}

func TestStore_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\n"), 0o644))

	s, err := NewStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", s.Tables().Version)

	require.NoError(t, os.WriteFile(path, []byte("banned: [oops"), 0o644))
	assert.Error(t, s.Reload(path))
	assert.Equal(t, "v1", s.Tables().Version)
}

func TestStore_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\n"), 0o644))

	s, err := NewStore(path, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx, path))

	require.NoError(t, os.WriteFile(path, []byte("version: v2\nbanned:\n  commander: [Sol Ring]\n"), 0o644))

	assert.Eventually(t, func() bool {
		return s.Tables().Version == "v2"
	}, 5*time.Second, 50*time.Millisecond)
	assert.True(t, s.Tables().IsBanned("Commander", "Sol Ring"))
}
