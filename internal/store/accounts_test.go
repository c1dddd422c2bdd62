package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/model"
)

func activeCount(t *testing.T, r *AccountRegistry, owner string) int {
	t.Helper()
	accounts, err := r.ListAccounts(owner)
	require.NoError(t, err)
	n := 0
	for _, a := range accounts {
		if a.Active {
			n++
		}
	}
	return n
}

func TestAccountRegistry(t *testing.T) {
	t.Run("first registered account becomes active", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())

		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100", Username: "alpha"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "200", Username: "beta"}))

		accounts, err := r.ListAccounts("owner1")
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.True(t, accounts[0].Active)
		assert.False(t, accounts[1].Active)
	})

	t.Run("upsert preserves active flag", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())

		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100", Username: "alpha"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100", Username: "renamed", Active: false}))

		acc, err := r.ActiveAccount("owner1")
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, "renamed", acc.Username)
	})

	t.Run("set active moves the flag", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "200"}))

		ok, err := r.SetActive("owner1", "200")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 1, activeCount(t, r, "owner1"))

		acc, err := r.ActiveAccount("owner1")
		require.NoError(t, err)
		assert.Equal(t, "200", acc.UID)
	})

	t.Run("set active on unknown uid reports false", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))

		ok, err := r.SetActive("owner1", "999")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, activeCount(t, r, "owner1"))
	})

	t.Run("removing active account promotes first remaining", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "200"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "300"}))

		removed, err := r.RemoveAccount("owner1", "100")
		require.NoError(t, err)
		assert.True(t, removed)

		acc, err := r.ActiveAccount("owner1")
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, "200", acc.UID)
		assert.Equal(t, 1, activeCount(t, r, "owner1"))
	})

	t.Run("at most one active after arbitrary operations", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "200"}))
		_, err := r.SetActive("owner1", "200")
		require.NoError(t, err)
		_, err = r.RemoveAccount("owner1", "200")
		require.NoError(t, err)
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "300", Active: true}))
		_, err = r.RemoveAccount("owner1", "100")
		require.NoError(t, err)

		assert.LessOrEqual(t, activeCount(t, r, "owner1"), 1)
	})

	t.Run("removing last account leaves owner empty", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))

		removed, err := r.RemoveAccount("owner1", "100")
		require.NoError(t, err)
		assert.True(t, removed)

		accounts, err := r.ListAccounts("owner1")
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("malformed records are dropped and file healed", func(t *testing.T) {
		dir := t.TempDir()
		raw := `{"owner1":[{"uid":"100","username":"ok","active":true},"garbage",{"username":"no-uid"},{"uid":"200","active":true}]}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"), []byte(raw), 0o644))

		r := NewAccountRegistry(dir)
		accounts, err := r.ListAccounts("owner1")
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "100", accounts[0].UID)
		assert.Equal(t, "200", accounts[1].UID)
		// duplicate active flags collapsed to the first
		assert.True(t, accounts[0].Active)
		assert.False(t, accounts[1].Active)

		// corrected set was persisted back
		healed, err := os.ReadFile(filepath.Join(dir, "accounts.json"))
		require.NoError(t, err)
		assert.NotContains(t, string(healed), "garbage")
	})

	t.Run("malformed file reads as empty", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.json"), []byte("{not json"), 0o644))

		r := NewAccountRegistry(dir)
		accounts, err := r.ListAccounts("owner1")
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("list all owners", func(t *testing.T) {
		r := NewAccountRegistry(t.TempDir())
		require.NoError(t, r.UpsertAccount("owner1", model.Account{UID: "100"}))
		require.NoError(t, r.UpsertAccount("owner2", model.Account{UID: "900"}))

		all, err := r.ListAll()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
