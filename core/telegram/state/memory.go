package state

import (
	"context"
	"sync"
)

// MemoryStore keeps conversations in process memory; everything is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[int64]*Conversation
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[int64]*Conversation)}
}

// Get returns a copy of the stored conversation.
func (m *MemoryStore) Get(_ context.Context, userID int64) (Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if conv, ok := m.convs[userID]; ok {
		return conv.clone(), true, nil
	}
	return NewConversation(userID), false, nil
}

// SetState updates the tag, creating the conversation if necessary.
func (m *MemoryStore) SetState(_ context.Context, userID int64, tag Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).Tag = tag
	return nil
}

// UpdateScratch stores a scratch value for the user.
func (m *MemoryStore) UpdateScratch(_ context.Context, userID int64, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(userID).Scratch[key] = value
	return nil
}

// Clear removes the whole conversation of a user.
func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, userID)
	return nil
}

// Len reports the number of stored conversations.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.convs)
}

func (m *MemoryStore) entry(userID int64) *Conversation {
	conv, ok := m.convs[userID]
	if !ok {
		c := NewConversation(userID)
		conv = &c
		m.convs[userID] = conv
	}
	return conv
}
