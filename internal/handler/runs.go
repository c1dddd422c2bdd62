package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/action"
	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/orchestrator"
	"github.com/promofarm/core-go/internal/store"
	"github.com/promofarm/core-go/internal/util"
)

// Runner is the orchestrator surface the run endpoints need.
type Runner interface {
	RunForAccount(ctx context.Context, owner string, acc model.Account, act action.EventAction) model.ActionResult
	RunForOwner(ctx context.Context, owner string, act action.EventAction) (model.BatchSummary, error)
	RunForAllOwners(ctx context.Context, act action.EventAction, progress orchestrator.ProgressFunc) (model.BatchSummary, error)
	RedeemPromo(ctx context.Context, owner, code string) (model.BatchSummary, error)
}

type RunsHandler struct {
	runner   Runner
	registry *store.AccountRegistry
	actions  map[string]action.EventAction
}

func NewRunsHandler(runner Runner, registry *store.AccountRegistry, actions map[string]action.EventAction) *RunsHandler {
	return &RunsHandler{runner: runner, registry: registry, actions: actions}
}

func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/promo/{owner}", h.RedeemPromo)
	r.Post("/{action}/account/{owner}/{uid}", h.RunAccount)
	r.Post("/{action}/owner/{owner}", h.RunOwner)
	r.Post("/{action}/org", h.RunOrg)

	return r
}

func (h *RunsHandler) lookupAction(w http.ResponseWriter, r *http.Request) (action.EventAction, bool) {
	name := chi.URLParam(r, "action")
	act, ok := h.actions[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown action: " + name})
		return nil, false
	}
	return act, true
}

// POST /runs/{action}/account/{owner}/{uid}
func (h *RunsHandler) RunAccount(w http.ResponseWriter, r *http.Request) {
	act, ok := h.lookupAction(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "owner")
	uid := chi.URLParam(r, "uid")

	acc, err := h.registry.FindAccount(owner, uid)
	if err != nil {
		writeError(w, err)
		return
	}
	if acc == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Account not found"})
		return
	}

	result := h.runner.RunForAccount(r.Context(), owner, *acc, act)
	writeJSON(w, http.StatusOK, result)
}

// POST /runs/{action}/owner/{owner}
func (h *RunsHandler) RunOwner(w http.ResponseWriter, r *http.Request) {
	act, ok := h.lookupAction(w, r)
	if !ok {
		return
	}
	owner := chi.URLParam(r, "owner")

	summary, err := h.runner.RunForOwner(r.Context(), owner, act)
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Str("action", act.Name()).Msg("owner batch failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// POST /runs/{action}/org
//
// Runs the action across every owner's accounts. This is a long request by
// design; progress goes to the log.
func (h *RunsHandler) RunOrg(w http.ResponseWriter, r *http.Request) {
	act, ok := h.lookupAction(w, r)
	if !ok {
		return
	}

	progress := func(processed, total int) {
		log.Info().Int("processed", processed).Int("total", total).
			Str("action", act.Name()).Msg("org batch progress")
	}

	summary, err := h.runner.RunForAllOwners(r.Context(), act, progress)
	if err != nil {
		log.Error().Err(err).Str("action", act.Name()).Msg("org batch failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// POST /runs/promo/{owner}
func (h *RunsHandler) RedeemPromo(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code is required"})
		return
	}

	summary, err := h.runner.RedeemPromo(r.Context(), owner, req.Code)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Str("code", util.MaskCode(req.Code)).Msg("promo redeem rejected")
		writeError(w, err)
		return
	}

	log.Info().Str("owner", owner).Str("code", util.MaskCode(req.Code)).
		Int("succeeded", summary.Succeeded).Msg("promo batch finished")
	writeJSON(w, http.StatusOK, summary)
}
