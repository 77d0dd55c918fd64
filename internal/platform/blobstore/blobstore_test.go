package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	disk, err := NewDiskStore(t.TempDir(), "https://cdn.example.com/files/")
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewMemoryStore("https://cdn.example.com/files"),
		"disk":   disk,
	}
}

func TestStore_PutOpenDelete(t *testing.T) {
	content := []byte("radiografia panoramica")
	sum := sha256.Sum256(content)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			obj, err := s.Put(ctx, "1/p/raio-x.png", "image/png", bytes.NewReader(content))
			require.NoError(t, err)
			assert.Equal(t, int64(len(content)), obj.Size)
			assert.Equal(t, hex.EncodeToString(sum[:]), obj.SHA256)
			assert.Equal(t, "https://cdn.example.com/files/1/p/raio-x.png", obj.URL)

			rc, err := s.Open(ctx, "1/p/raio-x.png")
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			assert.Equal(t, content, got)

			require.NoError(t, s.Delete(ctx, "1/p/raio-x.png"))
			_, err = s.Open(ctx, "1/p/raio-x.png")
			assert.True(t, errors.Is(err, ErrBlobNotFound))
			assert.True(t, errors.Is(s.Delete(ctx, "1/p/raio-x.png"), ErrBlobNotFound))
		})
	}
}

func TestStore_RejectsBadInput(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Put(ctx, "a.exe", "application/x-msdownload", strings.NewReader("x"))
			assert.True(t, errors.Is(err, ErrInvalidContentType))

			_, err = s.Put(ctx, "../escape.png", "image/png", strings.NewReader("x"))
			assert.True(t, errors.Is(err, ErrInvalidKey))

			_, err = s.Put(ctx, "", "image/png", strings.NewReader("x"))
			assert.True(t, errors.Is(err, ErrInvalidKey))
		})
	}
}

func TestStore_TooLarge(t *testing.T) {
	s := NewMemoryStore("")
	big := io.LimitReader(zeroReader{}, MaxFileSize+10)
	_, err := s.Put(context.Background(), "big.pdf", "application/pdf", big)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Equal(t, 0, s.Len())
}

func TestCheckContentType(t *testing.T) {
	assert.NoError(t, CheckContentType("text/plain; charset=utf-8"))
	assert.NoError(t, CheckContentType("IMAGE/JPEG"))
	assert.Error(t, CheckContentType("text/html"))
}

func TestPublicURL_NoBase(t *testing.T) {
	assert.Equal(t, "/x/y.pdf", NewMemoryStore("").PublicURL("x/y.pdf"))
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
