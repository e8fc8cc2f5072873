package storage

import (
	"context"
	"sync"
	"time"

	"github.com/taskdeck/taskdeck/internal/model"
)

type memObject struct {
	data []byte
	info ObjectInfo
}

// MemoryStore is an in-process ObjectStore.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

// Put stores a copy of data.
func (s *MemoryStore) Put(_ context.Context, name string, data []byte, contentType string) (*ObjectInfo, error) {
	if contentType == "" {
		contentType = defaultContentType
	}
	obj := memObject{
		data: append([]byte(nil), data...),
		info: ObjectInfo{
			Name:        name,
			Size:        uint64(len(data)),
			ContentType: contentType,
			ModTime:     time.Now().UTC(),
		},
	}

	s.mu.Lock()
	s.objects[name] = obj
	s.mu.Unlock()

	info := obj.info
	return &info, nil
}

// Get returns a copy of the object.
func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, *ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		return nil, nil, model.ErrObjectNotFound
	}
	info := obj.info
	return append([]byte(nil), obj.data...), &info, nil
}

// GetInfo returns object metadata.
func (s *MemoryStore) GetInfo(_ context.Context, name string) (*ObjectInfo, error) {
	s.mu.RLock()
	obj, ok := s.objects[name]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrObjectNotFound
	}
	info := obj.info
	return &info, nil
}

// Delete removes an object.
func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return model.ErrObjectNotFound
	}
	delete(s.objects, name)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
