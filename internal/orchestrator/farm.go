package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/action"
	"github.com/promofarm/core-go/internal/config"
	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/model"
)

// FarmJobKind is the job registry key for the org-wide farm sweep.
const FarmJobKind = "farm"

// StartFarm launches the org-wide farm sweep as a background job. With
// resume=true it continues from the persisted checkpoint; otherwise any
// stale checkpoint is discarded and the sweep starts at the first account.
// Returns DuplicateJob when a sweep is already in flight.
func (o *Orchestrator) StartFarm(resume bool, progress ProgressFunc) error {
	startIndex := 0
	if resume {
		cp, err := o.checkpoints.Load(FarmJobKind)
		if err != nil {
			return apperrors.Storage(err)
		}
		if cp != nil {
			startIndex = cp.NextIndex
		}
	} else {
		if err := o.checkpoints.Clear(FarmJobKind); err != nil {
			return apperrors.Storage(err)
		}
	}

	return o.jobs.Start(FarmJobKind, func(ctx context.Context, h *JobHandle) model.JobStatus {
		return o.runFarm(ctx, h, startIndex, progress)
	})
}

// PauseFarm cancels the running sweep preserving its checkpoint. Returns
// false when no sweep was running.
func (o *Orchestrator) PauseFarm() bool { return o.jobs.Pause(FarmJobKind) }

// StopFarm cancels the running sweep and discards its checkpoint. Returns
// false when no sweep was running.
func (o *Orchestrator) StopFarm() bool {
	stopped := o.jobs.Stop(FarmJobKind)
	if err := o.checkpoints.Clear(FarmJobKind); err != nil {
		log.Warn().Err(err).Msg("could not clear farm checkpoint")
	}
	return stopped
}

// IsFarmRunning reports whether a sweep is in flight.
func (o *Orchestrator) IsFarmRunning() bool { return o.jobs.IsRunning(FarmJobKind) }

// FarmState returns the sweep's externally visible state.
func (o *Orchestrator) FarmState() model.FarmJobState { return o.jobs.State(FarmJobKind) }

func (o *Orchestrator) runFarm(ctx context.Context, h *JobHandle, startIndex int, progress ProgressFunc) model.JobStatus {
	started := time.Now()

	entries, err := o.flattenAccounts()
	if err != nil {
		log.Error().Err(err).Msg("farm sweep could not list accounts")
		return model.JobCancelled
	}
	if startIndex > len(entries) {
		startIndex = len(entries)
	}

	// Resolve the event gate once for the whole sweep. A gated action whose
	// event is inactive is dropped up front instead of skipping every
	// account one by one.
	actions := make([]action.EventAction, 0, len(o.farmActions))
	for _, act := range o.farmActions {
		active, err := o.ensureFresh(ctx, act.EventID())
		if err != nil {
			log.Warn().Str("action", act.Name()).Err(err).
				Msg("activity check failed, skipping action this sweep")
			continue
		}
		if !active {
			log.Info().Str("action", act.Name()).Msg("event inactive, skipping action this sweep")
			continue
		}
		actions = append(actions, act)
	}

	var summary model.BatchSummary
	reporter := newProgressReporter(progress, config.ProgressMinInterval, config.ProgressMinIncrement)
	h.SetProgress(startIndex, len(entries))

	for i := startIndex; i < len(entries); i++ {
		if ctx.Err() != nil {
			return o.finishInterrupted(h, i, summary)
		}

		entry := entries[i]
		for _, act := range actions {
			if ctx.Err() != nil {
				return o.finishInterrupted(h, i, summary)
			}
			if o.pacer != nil {
				if err := o.pacer.Wait(ctx); err != nil {
					return o.finishInterrupted(h, i, summary)
				}
			}
			summary.Add(o.RunForAccount(ctx, entry.owner, entry.account, act), config.MaxFailureDetails)
		}

		h.SetProgress(i+1, len(entries))
		reporter.Report(i+1, len(entries))

		if i < len(entries)-1 {
			select {
			case <-ctx.Done():
				return o.finishInterrupted(h, i+1, summary)
			case <-time.After(o.orgDelay):
			}
		}
	}

	reporter.Flush(len(entries), len(entries))
	if err := o.checkpoints.Clear(FarmJobKind); err != nil {
		log.Warn().Err(err).Msg("could not clear farm checkpoint")
	}
	o.record(ctx, "farm", summary, started)
	return model.JobCompleted
}

// finishInterrupted distinguishes pause from stop. Pause persists a cursor
// pointing at the next unprocessed account; stop leaves no resume state.
func (o *Orchestrator) finishInterrupted(h *JobHandle, nextIndex int, summary model.BatchSummary) model.JobStatus {
	if h.PauseRequested() {
		cp := model.FarmCheckpoint{
			JobKind:   FarmJobKind,
			NextIndex: nextIndex,
			SavedAt:   time.Now(),
		}
		if err := o.checkpoints.Save(cp); err != nil {
			log.Error().Err(err).Msg("could not persist farm checkpoint")
		}
		log.Info().Int("next_index", nextIndex).Int("processed", summary.Total).
			Msg("farm sweep paused")
		return model.JobPaused
	}
	log.Info().Int("processed", summary.Total).Msg("farm sweep stopped")
	return model.JobCancelled
}
