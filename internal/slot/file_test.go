package slot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	_, err = f.Load(ctx, "nanogen_users")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.Save(ctx, "nanogen_users", []byte(`[{"username":"alice"}]`)))
	require.NoError(t, f.Save(ctx, "nanogen_users", []byte(`[]`)))

	got, err := f.Load(ctx, "nanogen_users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "nanogen_users.json", entries[0].Name())
}

func TestFile_RejectsPathLikeKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	err = f.Save(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
}

func TestNewFile_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "slots")
	_, err := NewFile(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
