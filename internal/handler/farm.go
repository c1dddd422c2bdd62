package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/orchestrator"
)

// FarmController is the orchestrator surface for the farm job lifecycle.
type FarmController interface {
	StartFarm(resume bool, progress orchestrator.ProgressFunc) error
	PauseFarm() bool
	StopFarm() bool
	FarmState() model.FarmJobState
}

type FarmHandler struct {
	farm FarmController
}

func NewFarmHandler(farm FarmController) *FarmHandler {
	return &FarmHandler{farm: farm}
}

func (h *FarmHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/start", h.Start)
	r.Post("/pause", h.Pause)
	r.Post("/stop", h.Stop)
	r.Get("/status", h.Status)

	return r
}

// POST /farm/start
func (h *FarmHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Resume bool `json:"resume"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	progress := func(processed, total int) {
		log.Info().Int("processed", processed).Int("total", total).Msg("farm sweep progress")
	}

	if err := h.farm.StartFarm(req.Resume, progress); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success": true,
		"resumed": req.Resume,
	})
}

// POST /farm/pause
func (h *FarmHandler) Pause(w http.ResponseWriter, r *http.Request) {
	if !h.farm.PauseFarm() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "No farm sweep running"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// POST /farm/stop
func (h *FarmHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if !h.farm.StopFarm() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "No farm sweep running"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GET /farm/status
func (h *FarmHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.farm.FarmState())
}
