// Package memory stores batch files in-memory for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Op names a single mutation applied to the store.
type Op struct {
	Kind string // "touch", "put" or "remove"
	Name string
}

// BlobStore keeps files in a map and journals every mutation so callers can
// assert on write ordering.
type BlobStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	journal []Op

	// FailPut, when set, is returned by PutObject instead of storing data.
	FailPut error
}

// NewBlobStore creates a new in-memory blob store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		data: make(map[string][]byte),
	}
}

// Touch records an empty file.
func (s *BlobStore) Touch(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = []byte{}
	s.journal = append(s.journal, Op{Kind: "touch", Name: name})
	return nil
}

// PutObject persists a copy of the content and returns a URI.
func (s *BlobStore) PutObject(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return "", s.FailPut
	}
	s.data[name] = append([]byte(nil), data...)
	s.journal = append(s.journal, Op{Kind: "put", Name: name})
	return fmt.Sprintf("memory://%s", name), nil
}

// Remove deletes a file if present.
func (s *BlobStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	s.journal = append(s.journal, Op{Kind: "remove", Name: name})
	return nil
}

// Get returns a stored file.
func (s *BlobStore) Get(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.data[name]
	return data, ok
}

// Names lists stored files in lexical order.
func (s *BlobStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Journal returns a copy of the mutation log.
func (s *BlobStore) Journal() []Op {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Op(nil), s.journal...)
}
