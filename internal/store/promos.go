package store

import (
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type promoEntry struct {
	Code      string    `json:"code"`
	AppliedAt time.Time `json:"applied_at"`
}

// PromoHistory is the append-only record of promotional codes that were
// already applied. It guarantees at-most-once activation of any code across
// all accounts and all time.
type PromoHistory struct {
	path string
	mu   sync.Mutex
}

func NewPromoHistory(dir string) *PromoHistory {
	return &PromoHistory{path: filepath.Join(dir, "promo_history.json")}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Contains reports whether the code was applied before.
func (h *PromoHistory) Contains(code string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return false, err
	}
	code = normalizeCode(code)
	for _, e := range entries {
		if normalizeCode(e.Code) == code {
			return true, nil
		}
	}
	return false, nil
}

// Record appends the code. Recording an already present code is a no-op.
func (h *PromoHistory) Record(code string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.readAll()
	if err != nil {
		return err
	}
	norm := normalizeCode(code)
	for _, e := range entries {
		if normalizeCode(e.Code) == norm {
			return nil
		}
	}
	entries = append(entries, promoEntry{Code: norm, AppliedAt: time.Now().UTC()})
	return writeJSON(h.path, entries)
}

func (h *PromoHistory) readAll() ([]promoEntry, error) {
	entries := make([]promoEntry, 0)
	if _, err := readJSON(h.path, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
