// Package handler exposes the control API: account management, event
// status, batch runs and the farm job lifecycle.
package handler

import (
	"net/http"
	"strconv"

	"github.com/promofarm/core-go/internal/httputil"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func parseLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > MaxLimit {
		return DefaultLimit
	}
	return limit
}
