package blobstore

import (
	"bytes"
	"context"
	"io"
	"sync"
)

type memoryBlob struct {
	obj  Object
	data []byte
}

// MemoryStore keeps blobs in memory. Tests and local development use it.
type MemoryStore struct {
	mu      sync.RWMutex
	blobs   map[string]*memoryBlob
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{blobs: make(map[string]*memoryBlob), baseURL: baseURL}
}

func (s *MemoryStore) Put(_ context.Context, key, contentType string, r io.Reader) (*Object, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	if err := CheckContentType(contentType); err != nil {
		return nil, err
	}
	hr := newHashingReader(r)
	data, err := io.ReadAll(hr)
	if err != nil {
		return nil, err
	}

	obj := Object{Key: key, ContentType: contentType, Size: hr.size, SHA256: hr.sum(), URL: s.PublicURL(key)}
	s.mu.Lock()
	s.blobs[key] = &memoryBlob{obj: obj, data: data}
	s.mu.Unlock()
	return &obj, nil
}

func (s *MemoryStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) PublicURL(key string) string {
	return joinURL(s.baseURL, key)
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
