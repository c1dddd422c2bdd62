package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/promofarm/core-go/internal/archive"
)

type ReportsHandler struct {
	reports archive.ReportRepository
}

func NewReportsHandler(reports archive.ReportRepository) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	return r
}

// GET /reports?limit=N
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"total":   len(reports),
	})
}

// GET /reports/{id}
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Report not found"})
		return
	}

	writeJSON(w, http.StatusOK, report)
}
