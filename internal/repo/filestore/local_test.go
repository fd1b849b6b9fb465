package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkosarev/picshare/pkg/types/errs"
)

func TestLocalRoundTrip(t *testing.T) {
	store := NewLocal(t.TempDir())
	ctx := context.Background()

	key := "owner-1/thumbs/thumb_cat.jpg"
	require.NoError(t, store.Write(ctx, key, []byte("bytes"), "image/jpeg"))

	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Read(ctx, key)
	assert.ErrorIs(t, err, errs.ErrFileNotFound)
}

func TestLocalWriteCreatesOwnerDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root)

	require.NoError(t, store.Write(context.Background(), "owner-2/thumbs/thumb_a.jpg", []byte("x"), "image/jpeg"))

	_, err := os.Stat(filepath.Join(root, "owner-2", "thumbs", "thumb_a.jpg"))
	assert.NoError(t, err)
}

func TestLocalReadMissing(t *testing.T) {
	store := NewLocal(t.TempDir())

	_, err := store.Read(context.Background(), "nope/missing.jpg")
	assert.ErrorIs(t, err, errs.ErrFileNotFound)
}

func TestLocalDeleteMissing(t *testing.T) {
	store := NewLocal(t.TempDir())

	err := store.Delete(context.Background(), "nope/missing.jpg")
	assert.ErrorIs(t, err, errs.ErrFileNotFound)
}
