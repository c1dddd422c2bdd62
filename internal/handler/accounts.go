package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/store"
)

// SessionRefresher provisions and persists a fresh session for an account.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, owner, uid string) (model.CookieSet, error)
}

type AccountsHandler struct {
	registry  *store.AccountRegistry
	cookies   *store.CookieStore
	refresher SessionRefresher
}

func NewAccountsHandler(registry *store.AccountRegistry, cookies *store.CookieStore, refresher SessionRefresher) *AccountsHandler {
	return &AccountsHandler{registry: registry, cookies: cookies, refresher: refresher}
}

func (h *AccountsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{owner}", h.List)
	r.Post("/{owner}", h.Upsert)
	r.Delete("/{owner}/{uid}", h.Remove)
	r.Post("/{owner}/{uid}/activate", h.Activate)
	r.Post("/{owner}/{uid}/refresh-session", h.RefreshSession)
	r.Delete("/{owner}/{uid}/session", h.DropSession)

	return r
}

// GET /accounts/{owner}
func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	accounts, err := h.registry.ListAccounts(owner)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("failed to list accounts")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": accounts,
		"total":    len(accounts),
	})
}

// POST /accounts/{owner}
func (h *AccountsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	var acc model.Account
	if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if !acc.Normalize() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "uid is required"})
		return
	}

	if err := h.registry.UpsertAccount(owner, acc); err != nil {
		log.Error().Err(err).Str("owner", owner).Str("uid", acc.UID).Msg("failed to upsert account")
		writeError(w, err)
		return
	}

	log.Info().Str("owner", owner).Str("uid", acc.UID).Msg("account saved")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DELETE /accounts/{owner}/{uid}
func (h *AccountsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	uid := chi.URLParam(r, "uid")

	removed, err := h.registry.RemoveAccount(owner, uid)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Str("uid", uid).Msg("failed to remove account")
		writeError(w, err)
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Account not found"})
		return
	}

	if err := h.cookies.Delete(owner, uid); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("could not drop stored session for removed account")
	}

	log.Info().Str("owner", owner).Str("uid", uid).Msg("account removed")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /accounts/{owner}/{uid}/activate
func (h *AccountsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	uid := chi.URLParam(r, "uid")

	ok, err := h.registry.SetActive(owner, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Account not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /accounts/{owner}/{uid}/refresh-session
func (h *AccountsHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	uid := chi.URLParam(r, "uid")

	set, err := h.refresher.RefreshSession(r.Context(), owner, uid)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Str("uid", uid).Msg("session refresh failed")
		writeError(w, err)
		return
	}

	log.Info().Str("owner", owner).Str("uid", uid).Int("cookies", len(set)).Msg("session refreshed")
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cookies": len(set),
	})
}

// DELETE /accounts/{owner}/{uid}/session
func (h *AccountsHandler) DropSession(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	uid := chi.URLParam(r, "uid")

	if err := h.cookies.Delete(owner, uid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
