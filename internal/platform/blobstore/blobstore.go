// Package blobstore stores uploaded files (radiographs, photos, signed
// documents) and hands out public URLs for them.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
	ErrInvalidKey         = errors.New("invalid blob key")
)

// MaxFileSize is the maximum allowed blob size in bytes (25 MB).
const MaxFileSize = 25 * 1024 * 1024

// AllowedContentTypes lists the file types a clinic may upload.
var AllowedContentTypes = map[string]bool{
	"image/png":         true,
	"image/jpeg":        true,
	"image/webp":        true,
	"image/dicom":       true,
	"application/dicom": true,
	"application/pdf":   true,
	"text/plain":        true,
}

// Object describes a stored blob.
type Object struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	SHA256      string `json:"sha256"`
	URL         string `json:"url"`
}

// Store is a blob storage backend.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// CheckContentType validates ct against AllowedContentTypes, ignoring
// parameters such as charset.
func CheckContentType(ct string) error {
	base, _, _ := strings.Cut(ct, ";")
	if !AllowedContentTypes[strings.TrimSpace(strings.ToLower(base))] {
		return ErrInvalidContentType
	}
	return nil
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "..") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// hashingReader hashes and counts everything read through it, failing once
// more than MaxFileSize bytes have been read.
type hashingReader struct {
	r    io.Reader
	h    hashWriter
	size int64
}

type hashWriter interface {
	io.Writer
	Sum([]byte) []byte
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: io.LimitReader(r, MaxFileSize+1), h: sha256.New()}
}

func (h *hashingReader) Read(p []byte) (int, error) {
	n, err := h.r.Read(p)
	if n > 0 {
		h.size += int64(n)
		if h.size > MaxFileSize {
			return n, ErrFileTooLarge
		}
		h.h.Write(p[:n])
	}
	return n, err
}

func (h *hashingReader) sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
