package store

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ActivityStore persists the global event activity map: event id -> active.
// The file's modification time is the freshness signal; a map older than the
// caller's TTL must be re-detected before any gated operation trusts it.
type ActivityStore struct {
	path string
	mu   sync.Mutex
}

func NewActivityStore(dir string) *ActivityStore {
	return &ActivityStore{path: filepath.Join(dir, "event_activity.json")}
}

// Get returns the last persisted verdict for the event. Unknown events read
// as inactive.
func (s *ActivityStore) Get(eventID string) (bool, error) {
	all, err := s.All()
	if err != nil {
		return false, err
	}
	return all[eventID], nil
}

// All returns the full persisted activity map.
func (s *ActivityStore) All() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make(map[string]bool)
	if _, err := readJSON(s.path, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// ReplaceAll persists the result of a full detection pass wholesale.
func (s *ActivityStore) ReplaceAll(m map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, m)
}

// CheckedAt returns when the map was last written. A missing file reports
// the zero time, which any TTL treats as stale.
func (s *ActivityStore) CheckedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Stale reports whether the map is older than ttl.
func (s *ActivityStore) Stale(ttl time.Duration) bool {
	checked := s.CheckedAt()
	return checked.IsZero() || time.Since(checked) > ttl
}
