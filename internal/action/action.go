// Package action holds the per-event business logic. Each event is one
// EventAction implementation; the orchestrator depends only on the
// interface.
package action

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
)

// Result is what one account's attempt produced.
type Result struct {
	Outcome model.Outcome
	Message string
}

// EventAction performs the reward-claim calls for one event using a
// provisioned session.
type EventAction interface {
	// Name identifies the action in logs and reports.
	Name() string
	// EventID ties the action to an activity-gated event; empty means the
	// action is not gated.
	EventID() string
	Execute(ctx context.Context, sess *gameclient.Session) (Result, error)
}

// claimResponse is the envelope the site's AJAX endpoints return.
type claimResponse struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

var alreadyClaimedPhrases = []string{
	"already claimed",
	"already received",
	"already participated",
	"já resgatado",
	"já recebido",
	"ya reclamado",
	"ya recibido",
}

var inactivePhrases = []string{
	"not active",
	"has ended",
	"not available",
	"evento encerrado",
	"no disponible",
}

// ClassifyResponse maps a claim endpoint's body into an outcome. Claiming a
// reward that was already claimed today is benign and counts as success;
// an inactive event is a skip; anything unrecognized is recoverable so the
// next scheduled run retries it.
func ClassifyResponse(body []byte) Result {
	var resp claimResponse
	text := strings.ToLower(string(body))
	if err := json.Unmarshal(body, &resp); err == nil && resp.Result != "" {
		text = strings.ToLower(resp.Result + " " + resp.Message)
	}

	switch {
	case strings.Contains(text, "success") || strings.TrimSpace(text) == "ok":
		return Result{Outcome: model.OutcomeSuccess, Message: "reward claimed"}
	case containsAny(text, alreadyClaimedPhrases):
		return Result{Outcome: model.OutcomeSuccess, Message: "already claimed"}
	case containsAny(text, inactivePhrases):
		return Result{Outcome: model.OutcomeSkipped, Message: "event not active"}
	default:
		return Result{Outcome: model.OutcomeRecoverable, Message: "unrecognized response: " + truncate(text, 120)}
	}
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
