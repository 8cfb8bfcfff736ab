package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
)

// MemoryDocumentStore is an in-memory DocumentStore for tests and storeless
// development runs. Nothing survives a restart.
type MemoryDocumentStore struct {
	mu      sync.RWMutex
	records map[string]*model.DocumentRecord
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		records: make(map[string]*model.DocumentRecord),
	}
}

func (s *MemoryDocumentStore) Exists(_ context.Context, documentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[documentID]
	return ok, nil
}

func (s *MemoryDocumentStore) Get(_ context.Context, documentID string) (*model.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[documentID]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", sentinel.ErrNotFound, documentID)
	}

	// Copy so callers cannot mutate the stored record.
	out := *record
	return &out, nil
}

func (s *MemoryDocumentStore) Save(_ context.Context, documentID string, record *model.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[documentID]; ok {
		// First write wins, matching the durable store.
		return nil
	}

	stamped := *record
	stamped.ID = documentID
	stamped.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	s.records[documentID] = &stamped
	return nil
}

// Count returns the number of cached records
func (s *MemoryDocumentStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
