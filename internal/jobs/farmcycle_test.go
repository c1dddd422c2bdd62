package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/archive"
	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/orchestrator"
)

type fakeFarm struct {
	starts atomic.Int32
	err    error
}

func (f *fakeFarm) StartFarm(bool, orchestrator.ProgressFunc) error {
	f.starts.Add(1)
	return f.err
}

func TestFarmCycleJob(t *testing.T) {
	farm := &fakeFarm{}
	job := NewFarmCycleJob(farm, 20*time.Millisecond)

	job.Start()
	require.Eventually(t, func() bool { return farm.starts.Load() >= 2 }, time.Second, 5*time.Millisecond)
	job.Stop()

	after := farm.starts.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, farm.starts.Load(), "no ticks after stop")
}

func TestFarmCycleJobSkipsWhenRunning(t *testing.T) {
	farm := &fakeFarm{err: apperrors.DuplicateJob("farm")}
	job := NewFarmCycleJob(farm, 10*time.Millisecond)

	job.Start()
	require.Eventually(t, func() bool { return farm.starts.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()
}

type fakeReports struct {
	archive.ReportRepository
	deleted atomic.Int32
	cutoff  atomic.Value
}

func (f *fakeReports) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.deleted.Add(1)
	f.cutoff.Store(cutoff)
	return 1, nil
}

func TestPruneJob(t *testing.T) {
	reports := &fakeReports{}
	job := NewPruneJob(reports, 24*time.Hour, time.Hour)

	job.Start()
	require.Eventually(t, func() bool { return reports.deleted.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()

	cutoff := reports.cutoff.Load().(time.Time)
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), cutoff, time.Minute)
}
