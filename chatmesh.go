// Package chatmesh provides a high-level façade over the state persistence
// machinery enabling conversational agents and teams to be saved, restored
// and managed as named snapshots. Most applications interact with this
// package by:
//  1. Creating a ChatMesh via New() (optionally overriding the default in-memory store)
//  2. Running agents or teams from the agent and team packages
//  3. Calling Persist/Restore around runs to checkpoint conversational state
//
// The façade delegates storage to a state.Store while keeping setup and
// usage ergonomics concise. The default in-memory store is safe for local
// development and testing; production deployments typically supply a
// state.FileStore (or their own durable implementation) and a structured
// logger.
package chatmesh

import (
	"context"
	"time"

	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/state"
)

// Options configures the ChatMesh instance.
type Options struct {
	// Store holds named snapshots (defaults to an in-memory implementation
	// if not provided).
	Store state.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ChatMesh is the high-level façade aggregating snapshot storage and logging.
type ChatMesh struct {
	store  state.Store
	logger logging.Logger
}

// New creates a new ChatMesh instance with optional overrides.
func New(optFns ...func(o *Options)) *ChatMesh {
	opts := Options{
		Store:  state.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ChatMesh{store: opts.Store, logger: opts.Logger}
}

// Store exposes the underlying snapshot store.
func (m *ChatMesh) Store() state.Store { return m.store }

// Persist captures the saver's current state and stores it under key.
// The saver is any agent or team.
func (m *ChatMesh) Persist(ctx context.Context, key string, saver state.Saver) error {
	start := time.Now()

	snapshot, err := saver.SaveState(ctx)
	if err != nil {
		m.logger.Error("state capture failed", "key", key, "error", err)
		return err
	}

	if err := m.store.Save(ctx, key, snapshot); err != nil {
		m.logger.Error("state save failed", "key", key, "error", err)
		return err
	}

	m.logger.Info("state persisted", "key", key, "size_bytes", len(snapshot), "duration", time.Since(start))
	return nil
}

// Restore loads the snapshot stored under key into the loader. Returns
// state.ErrSnapshotNotFound when no snapshot exists for the key.
func (m *ChatMesh) Restore(ctx context.Context, key string, loader state.Loader) error {
	snapshot, err := m.store.Load(ctx, key)
	if err != nil {
		return err
	}

	if err := loader.LoadState(ctx, snapshot); err != nil {
		m.logger.Error("state restore failed", "key", key, "error", err)
		return err
	}

	m.logger.Info("state restored", "key", key, "size_bytes", len(snapshot))
	return nil
}

// Drop removes the snapshot stored under key. Removing a missing key is not
// an error.
func (m *ChatMesh) Drop(ctx context.Context, key string) error {
	return m.store.Delete(ctx, key)
}

// Keys lists the keys of all stored snapshots.
func (m *ChatMesh) Keys(ctx context.Context) ([]string, error) {
	return m.store.Keys(ctx)
}
