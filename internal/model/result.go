package model

import "fmt"

// Outcome classifies one account's attempt at an action.
type Outcome string

const (
	// OutcomeSuccess covers completed work including benign no-ops such as
	// "already claimed today".
	OutcomeSuccess Outcome = "success"
	// OutcomeRecoverable marks transient failures that are safe to retry on
	// the next scheduled cycle.
	OutcomeRecoverable Outcome = "failure-recoverable"
	// OutcomeSkipped marks unmet preconditions (missing session, missing
	// login reference). Never retried automatically.
	OutcomeSkipped Outcome = "skipped"
)

// ActionResult is the per-account result record surfaced to the caller.
type ActionResult struct {
	Owner    string  `json:"owner"`
	UID      string  `json:"uid"`
	Username string  `json:"username"`
	Outcome  Outcome `json:"outcome"`
	Message  string  `json:"message"`
}

func (r ActionResult) Success() bool { return r.Outcome == OutcomeSuccess }

// BatchSummary aggregates a fan-out run. Every account attempted appears in
// exactly one count.
type BatchSummary struct {
	Total          int            `json:"total"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	Skipped        int            `json:"skipped"`
	FailureDetails []string       `json:"failure_details,omitempty"`
	Results        []ActionResult `json:"results,omitempty"`
}

// Add folds one result into the summary, keeping at most maxDetails failure
// lines.
func (s *BatchSummary) Add(r ActionResult, maxDetails int) {
	s.Total++
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeSuccess:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
		if len(s.FailureDetails) < maxDetails {
			s.FailureDetails = append(s.FailureDetails,
				fmt.Sprintf("%s/%s: %s", r.Owner, r.UID, r.Message))
		}
	}
}
