// internal/store/file.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"carlog-service/internal/domain/vehicle"
)

const snapshotVersion = 1

// envelope wraps the snapshot on disk with a schema version.
type envelope struct {
	Version int               `json:"version"`
	Data    *vehicle.Snapshot `json:"data"`
}

// FileStore keeps the snapshot as a single JSON document. Saves go through a
// temp file and rename so a crash never leaves a half-written snapshot.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (*vehicle.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return vehicle.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file: %w", err)
	}
	if env.Data == nil {
		return vehicle.NewSnapshot(), nil
	}
	if env.Data.Cars == nil {
		env.Data.Cars = make(map[string]*vehicle.Record)
	}
	return env.Data, nil
}

func (s *FileStore) Save(ctx context.Context, snap *vehicle.Snapshot) error {
	raw, err := json.MarshalIndent(envelope{Version: snapshotVersion, Data: snap}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".carlog-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
