package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

type memoryEntry struct {
	session chat.Session
	seq     uint64
}

// MemoryStore keeps sessions in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	seq      uint64
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, session chat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[session.ID]
	if !ok {
		s.seq++
		entry.seq = s.seq
	}
	entry.session = session.Clone()
	s.sessions[session.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrNotFound
	}
	return entry.session.Clone(), nil
}

func (s *MemoryStore) ListSummaries(_ context.Context) ([]chat.Summary, error) {
	s.mu.RLock()
	entries := make([]memoryEntry, 0, len(s.sessions))
	for _, entry := range s.sessions {
		entries = append(entries, entry)
	}
	s.mu.RUnlock()

	// Insertion order breaks ties between identical creation times.
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].session.CreatedAt, entries[j].session.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].seq > entries[j].seq
	})

	summaries := make([]chat.Summary, len(entries))
	for i, entry := range entries {
		summaries[i] = entry.session.Summary()
	}
	return summaries, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false, nil
	}
	delete(s.sessions, id)
	return true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
