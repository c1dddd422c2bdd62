package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promofarm/core-go/internal/archive"
)

// PruneJob trims run reports past the retention window.
type PruneJob struct {
	reports   archive.ReportRepository
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
}

func NewPruneJob(reports archive.ReportRepository, retention, interval time.Duration) *PruneJob {
	return &PruneJob{
		reports:   reports,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
	}
}

func (j *PruneJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("prune job started")
}

func (j *PruneJob) Stop() {
	close(j.done)
	log.Info().Msg("prune job stopped")
}

func (j *PruneJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.prune()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *PruneJob) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.reports.DeleteOlderThan(ctx, time.Now().Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to prune run reports")
	} else if count > 0 {
		log.Info().Int64("count", count).Msg("pruned run reports")
	}
}
