package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/activity"
	"github.com/promofarm/core-go/internal/config"
	"github.com/promofarm/core-go/internal/store"
)

type EventsHandler struct {
	detector *activity.Detector
	activity *store.ActivityStore
}

func NewEventsHandler(detector *activity.Detector, activityStore *store.ActivityStore) *EventsHandler {
	return &EventsHandler{detector: detector, activity: activityStore}
}

func (h *EventsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)
	r.Post("/detect", h.Detect)

	return r
}

// GET /events/status
func (h *EventsHandler) Status(w http.ResponseWriter, r *http.Request) {
	verdicts, err := h.activity.All()
	if err != nil {
		writeError(w, err)
		return
	}

	checkedAt := h.activity.CheckedAt()

	resp := map[string]any{
		"events": verdicts,
		"stale":  h.detector.Stale(config.ActivityTTL),
	}
	if !checkedAt.IsZero() {
		resp["checked_at"] = checkedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /events/detect
//
// Runs a full detection pass synchronously and returns the fresh map.
func (h *EventsHandler) Detect(w http.ResponseWriter, r *http.Request) {
	verdicts, err := h.detector.DetectAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("manual detection pass failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": verdicts})
}
