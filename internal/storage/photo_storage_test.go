package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newTestStorage(t *testing.T) *PhotoStorage {
	t.Helper()
	s, err := NewPhotoStorage(t.TempDir(), "/media/", 1)
	require.NoError(t, err)
	return s
}

func TestPhotoStorage_SaveAndDelete(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	photo, err := s.Save(ctx, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.MIME)
	assert.Equal(t, int64(len(pngHeader)), photo.Size)
	assert.Contains(t, photo.PublicURL, "/media/requests/")
	assert.Equal(t, ".png", filepath.Ext(photo.RelativePath))

	onDisk := filepath.Join(s.Root(), photo.RelativePath)
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, s.Delete(ctx, photo.RelativePath))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	// Повторное удаление не ошибка
	assert.NoError(t, s.Delete(ctx, photo.RelativePath))
}

func TestPhotoStorage_RejectsNonImage(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.Save(context.Background(), bytes.NewReader([]byte("just some text, not an image")))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestPhotoStorage_RejectsTooLarge(t *testing.T) {
	s := newTestStorage(t)

	big := append(append([]byte{}, pngHeader...), make([]byte, s.MaxUploadBytes())...)
	_, err := s.Save(context.Background(), bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Root(), requestsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPhotoStorage_CancelledContext(t *testing.T) {
	s := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeDataURL(t *testing.T) {
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)

	r, err := DecodeDataURL(encoded)
	require.NoError(t, err)

	s := newTestStorage(t)
	photo, err := s.Save(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", photo.MIME)

	for _, bad := range []string{"", "image/png;base64,AAAA", "data:image/png,AAAA", "data:image/png;base64,%%%"} {
		_, err := DecodeDataURL(bad)
		assert.ErrorIs(t, err, ErrNotImage, bad)
	}
}
