package state

import (
	"context"
	"sort"
	"sync"
)

// Store persists snapshots under caller-chosen keys.
type Store interface {
	Save(ctx context.Context, key string, snapshot Snapshot) error
	Load(ctx context.Context, key string) (Snapshot, error)
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// InMemoryStore is a volatile Store keeping snapshots in a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// demos. Snapshots are copied on the way in and out to prevent external
// mutation of stored bytes.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewInMemoryStore constructs an empty in-memory snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]Snapshot)}
}

// Save validates and stores a copy of the snapshot under key.
func (s *InMemoryStore) Save(_ context.Context, key string, snapshot Snapshot) error {
	if err := Validate(snapshot); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = snapshot.Clone()
	return nil
}

// Load returns a copy of the snapshot stored under key.
func (s *InMemoryStore) Load(_ context.Context, key string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap.Clone(), nil
}

// Delete removes the snapshot stored under key. Deleting a missing key is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

// Keys returns the sorted set of keys with stored snapshots.
func (s *InMemoryStore) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
