// Package jobs holds the ticker-driven background jobs: the scheduled farm
// cycle and archive pruning.
package jobs

import (
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/orchestrator"
)

// FarmStarter is the orchestrator surface the cycle job needs.
type FarmStarter interface {
	StartFarm(resume bool, progress orchestrator.ProgressFunc) error
}

// FarmCycleJob kicks off a full farm sweep on a fixed interval. A sweep
// already in flight (scheduled or operator-started) makes the tick a no-op.
type FarmCycleJob struct {
	farm     FarmStarter
	interval time.Duration
	done     chan struct{}
}

func NewFarmCycleJob(farm FarmStarter, interval time.Duration) *FarmCycleJob {
	return &FarmCycleJob{
		farm:     farm,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *FarmCycleJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("farm cycle job started")
}

func (j *FarmCycleJob) Stop() {
	close(j.done)
	log.Info().Msg("farm cycle job stopped")
}

func (j *FarmCycleJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cycle()
		}
	}
}

func (j *FarmCycleJob) cycle() {
	err := j.farm.StartFarm(false, nil)
	switch {
	case err == nil:
		log.Info().Msg("scheduled farm sweep started")
	case apperrors.GetCode(err) == apperrors.ErrCodeDuplicateJob:
		log.Info().Msg("farm sweep already running, skipping scheduled cycle")
	default:
		log.Error().Err(err).Msg("failed to start scheduled farm sweep")
	}
}
