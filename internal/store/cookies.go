package store

import (
	"path/filepath"
	"sync"

	"github.com/promofarm/core-go/internal/model"
)

// CookieStore persists session cookies per (owner, account) as a single
// JSON document: owner -> uid -> cookie name -> value. Writes replace the
// stored set wholesale; callers always pass the complete authoritative set.
type CookieStore struct {
	path string
	mu   sync.Mutex
}

func NewCookieStore(dir string) *CookieStore {
	return &CookieStore{path: filepath.Join(dir, "cookies.json")}
}

func (s *CookieStore) readAll() (map[string]map[string]model.CookieSet, error) {
	all := make(map[string]map[string]model.CookieSet)
	if _, err := readJSON(s.path, &all); err != nil {
		return nil, err
	}
	return all, nil
}

// Load returns the stored cookie set, or an empty set when absent.
func (s *CookieStore) Load(owner, uid string) (model.CookieSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if set, ok := all[owner][uid]; ok && set != nil {
		return set.Clone(), nil
	}
	return model.CookieSet{}, nil
}

// Save atomically replaces the cookie set for (owner, uid), creating parent
// containers as needed.
func (s *CookieStore) Save(owner, uid string, set model.CookieSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	if all[owner] == nil {
		all[owner] = make(map[string]model.CookieSet)
	}
	all[owner][uid] = set.Clone()
	return writeJSON(s.path, all)
}

// Delete removes the stored set for (owner, uid), if any.
func (s *CookieStore) Delete(owner, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	if _, ok := all[owner][uid]; !ok {
		return nil
	}
	delete(all[owner], uid)
	if len(all[owner]) == 0 {
		delete(all, owner)
	}
	return writeJSON(s.path, all)
}
