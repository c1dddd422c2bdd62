package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/promofarm/core-go/internal/model"
)

// CheckpointStore persists the farm job's resumable cursor. The file's mere
// existence signals "resumable state available"; stop removes it so the next
// start begins from scratch.
type CheckpointStore struct {
	dir string
	mu  sync.Mutex
}

func NewCheckpointStore(dir string) *CheckpointStore {
	return &CheckpointStore{dir: dir}
}

func (s *CheckpointStore) pathFor(kind string) string {
	return filepath.Join(s.dir, "checkpoint_"+kind+".json")
}

// Save persists the checkpoint for the job kind.
func (s *CheckpointStore) Save(cp model.FarmCheckpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.pathFor(cp.JobKind), cp)
}

// Load returns the checkpoint for the job kind, or nil when none exists.
func (s *CheckpointStore) Load(kind string) (*model.FarmCheckpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cp model.FarmCheckpoint
	found, err := readJSON(s.pathFor(kind), &cp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &cp, nil
}

// Clear discards any checkpoint for the job kind.
func (s *CheckpointStore) Clear(kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.pathFor(kind)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
