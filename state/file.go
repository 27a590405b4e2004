package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore is a durable Store writing one indented JSON document per key
// under a directory. Writes are atomic: the snapshot is staged in a temp
// file and renamed into place, so readers never observe a partially written
// snapshot.
type FileStore struct {
	dir string
}

// NewFileStore constructs a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory backing this store.
func (s *FileStore) Dir() string { return s.dir }

// Save validates the snapshot and writes it atomically to <dir>/<key>.json.
func (s *FileStore) Save(_ context.Context, key string, snapshot Snapshot) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	return WriteFile(path, snapshot)
}

// Load reads the snapshot stored under key. A missing file maps to
// ErrSnapshotNotFound.
func (s *FileStore) Load(_ context.Context, key string) (Snapshot, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return ReadFile(path)
}

// Delete removes the snapshot file for key. Deleting a missing key is a no-op.
func (s *FileStore) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Keys returns the sorted keys of all snapshot files in the store directory.
func (s *FileStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read state dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

// path maps a key to its snapshot file, rejecting keys that would escape the
// store directory.
func (s *FileStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid snapshot key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// WriteFile validates and atomically persists a snapshot as indented JSON at
// path, creating parent directories as needed.
func WriteFile(path string, snapshot Snapshot) error {
	if err := Validate(snapshot); err != nil {
		return err
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, snapshot, "", "  "); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	indented.WriteByte('\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("stage snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(indented.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ReadFile loads and validates a snapshot from path. A missing file maps to
// ErrSnapshotNotFound.
func ReadFile(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap := Snapshot(data)
	if err := Validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}
