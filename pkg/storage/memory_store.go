package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/gokaycavdar/go-senderinfo/pkg/models"
)

// MemoryStore keeps sessions in process memory. Sessions live until they
// are deleted.
type MemoryStore struct {
	data map[string]models.Session
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]models.Session),
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.data[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (m *MemoryStore) Save(_ context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session must have an ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// stored by value so later changes by the caller do not leak in
	m.data[session.ID] = *session
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
