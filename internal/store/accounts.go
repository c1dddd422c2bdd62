package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/model"
)

// AccountRegistry persists per-owner account lists as a JSON document:
// owner -> ordered list of account records. Records are normalized on every
// read and the healed set is written back, so a hand-edited or truncated
// file converges to a valid shape.
//
// Invariant: at most one account per owner is active. Removing the active
// account promotes the first remaining one.
type AccountRegistry struct {
	path string
	mu   sync.Mutex
}

func NewAccountRegistry(dir string) *AccountRegistry {
	return &AccountRegistry{path: filepath.Join(dir, "accounts.json")}
}

// readAll loads and normalizes the registry. Entries that cannot be decoded
// are dropped; duplicate active flags are collapsed to the first. When
// anything was repaired the corrected set is persisted back.
func (r *AccountRegistry) readAll() (map[string][]model.Account, error) {
	raw := make(map[string][]json.RawMessage)
	if _, err := readJSON(r.path, &raw); err != nil {
		return nil, err
	}

	out := make(map[string][]model.Account, len(raw))
	healed := false
	for owner, entries := range raw {
		accounts := make([]model.Account, 0, len(entries))
		seenActive := false
		for _, entry := range entries {
			var acc model.Account
			if err := json.Unmarshal(entry, &acc); err != nil || !acc.Normalize() {
				log.Warn().Str("owner", owner).Msg("dropping malformed account record")
				healed = true
				continue
			}
			if acc.Active {
				if seenActive {
					acc.Active = false
					healed = true
				}
				seenActive = true
			}
			accounts = append(accounts, acc)
		}
		if len(accounts) != len(entries) {
			healed = true
		}
		if len(accounts) > 0 {
			out[owner] = accounts
		}
	}

	if healed {
		if err := writeJSON(r.path, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListAccounts returns the owner's accounts in insertion order.
func (r *AccountRegistry) ListAccounts(owner string) ([]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readAll()
	if err != nil {
		return nil, err
	}
	return all[owner], nil
}

// FindAccount returns the owner's account with the given uid, or nil.
func (r *AccountRegistry) FindAccount(owner, uid string) (*model.Account, error) {
	accounts, err := r.ListAccounts(owner)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].UID == uid {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// ActiveAccount returns the owner's active account, or nil when the owner
// has none.
func (r *AccountRegistry) ActiveAccount(owner string) (*model.Account, error) {
	accounts, err := r.ListAccounts(owner)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Active {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

// UpsertAccount inserts or replaces the account by uid. The first account an
// owner registers becomes active; an update never steals the active flag.
func (r *AccountRegistry) UpsertAccount(owner string, acc model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readAll()
	if err != nil {
		return err
	}

	accounts := all[owner]
	replaced := false
	for i := range accounts {
		if accounts[i].UID == acc.UID {
			acc.Active = accounts[i].Active
			accounts[i] = acc
			replaced = true
			break
		}
	}
	if !replaced {
		acc.Active = len(accounts) == 0
		accounts = append(accounts, acc)
	}

	all[owner] = accounts
	return writeJSON(r.path, all)
}

// RemoveAccount deletes the account and reports whether it existed. When the
// active account is removed, the first remaining account is promoted.
func (r *AccountRegistry) RemoveAccount(owner, uid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readAll()
	if err != nil {
		return false, err
	}

	accounts := all[owner]
	idx := -1
	for i := range accounts {
		if accounts[i].UID == uid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	wasActive := accounts[idx].Active
	accounts = append(accounts[:idx], accounts[idx+1:]...)
	if wasActive && len(accounts) > 0 {
		accounts[0].Active = true
	}

	if len(accounts) == 0 {
		delete(all, owner)
	} else {
		all[owner] = accounts
	}
	return true, writeJSON(r.path, all)
}

// SetActive marks the given account active and clears the flag on all
// siblings. Reports whether the account exists.
func (r *AccountRegistry) SetActive(owner, uid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all, err := r.readAll()
	if err != nil {
		return false, err
	}

	accounts := all[owner]
	found := false
	for i := range accounts {
		accounts[i].Active = accounts[i].UID == uid
		if accounts[i].Active {
			found = true
		}
	}
	if !found {
		return false, nil
	}
	all[owner] = accounts
	return true, writeJSON(r.path, all)
}

// ListAll returns every owner's accounts.
func (r *AccountRegistry) ListAll() (map[string][]model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readAll()
}
