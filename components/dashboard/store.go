package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrDocumentNotFound is returned by stores for unknown uids.
var ErrDocumentNotFound = errors.New("dashboard: document not found")

// InMemoryDocumentStore provides a concurrency-safe default store.
type InMemoryDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*Document
	snapshots map[string][]byte
}

var _ DocumentStore = (*InMemoryDocumentStore)(nil)

// NewInMemoryDocumentStore creates an empty store.
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		documents: make(map[string]*Document),
		snapshots: make(map[string][]byte),
	}
}

// Document returns the live document stored under uid.
func (s *InMemoryDocumentStore) Document(_ context.Context, uid string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDocumentNotFound, uid)
	}
	return doc, nil
}

// SaveDocument stores doc under uid, replacing any previous document.
func (s *InMemoryDocumentStore) SaveDocument(_ context.Context, uid string, doc *Document) error {
	if uid == "" {
		return errMissingUID
	}
	if doc == nil {
		return fmt.Errorf("dashboard: store %q: document is nil", uid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[uid] = doc
	return nil
}

// DeleteDocument removes the document and its snapshot.
func (s *InMemoryDocumentStore) DeleteDocument(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[uid]; !ok {
		return fmt.Errorf("%w: %q", ErrDocumentNotFound, uid)
	}
	delete(s.documents, uid)
	delete(s.snapshots, uid)
	return nil
}

// UIDs lists stored documents in lexical order.
func (s *InMemoryDocumentStore) UIDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uids := make([]string, 0, len(s.documents))
	for uid := range s.documents {
		uids = append(uids, uid)
	}
	slices.Sort(uids)
	return uids, nil
}

// Snapshot returns the last persisted form saved for uid.
func (s *InMemoryDocumentStore) Snapshot(_ context.Context, uid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.snapshots[uid]
	if !ok {
		return nil, fmt.Errorf("%w: no snapshot for %q", ErrDocumentNotFound, uid)
	}
	return slices.Clone(data), nil
}

// SaveSnapshot records a persisted form for uid.
func (s *InMemoryDocumentStore) SaveSnapshot(_ context.Context, uid string, data []byte) error {
	if uid == "" {
		return errMissingUID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[uid] = slices.Clone(data)
	return nil
}
