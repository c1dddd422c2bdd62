package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/model"
)

// JobRegistry owns every long-running background job, keyed by job kind.
// At most one instance per kind runs at a time; starting a duplicate is
// rejected, not queued. All access goes through the registry's lock, so
// there is no ambient global job state.
type JobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*JobHandle
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*JobHandle)}
}

// JobHandle tracks one spawned job instance.
type JobHandle struct {
	kind   string
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	status    model.JobStatus
	startedAt time.Time
	processed int
	total     int
	pausing   bool
}

// SetProgress records the job's position for state queries.
func (h *JobHandle) SetProgress(processed, total int) {
	h.mu.Lock()
	h.processed = processed
	h.total = total
	h.mu.Unlock()
}

// PauseRequested reports whether the pending cancellation is a pause (keep
// checkpoint) rather than a stop.
func (h *JobHandle) PauseRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pausing
}

func (h *JobHandle) finish(status model.JobStatus) {
	h.mu.Lock()
	h.status = status
	h.mu.Unlock()
}

// Start launches fn as the single instance of the job kind. The second
// start while one is in flight returns DuplicateJob. fn receives a context
// cancelled by Pause/Stop and must return the job's final status.
func (r *JobRegistry) Start(kind string, fn func(ctx context.Context, h *JobHandle) model.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[kind]; ok {
		select {
		case <-existing.done:
			// previous instance finished, slot is free
		default:
			return apperrors.DuplicateJob(kind)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &JobHandle{
		kind:      kind,
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    model.JobRunning,
		startedAt: time.Now(),
	}
	r.jobs[kind] = h

	go func() {
		defer close(h.done)
		defer cancel()
		status := fn(ctx, h)
		h.finish(status)
		log.Info().Str("job", kind).Str("status", string(status)).Msg("job finished")
	}()

	log.Info().Str("job", kind).Msg("job started")
	return nil
}

// Pause cancels the running instance, marking the cancellation resumable,
// and waits for it to actually terminate. Returns false when nothing was
// running.
func (r *JobRegistry) Pause(kind string) bool {
	return r.halt(kind, true)
}

// Stop cancels the running instance discarding resume state and waits for
// termination. Returns false when nothing was running.
func (r *JobRegistry) Stop(kind string) bool {
	return r.halt(kind, false)
}

func (r *JobRegistry) halt(kind string, pause bool) bool {
	r.mu.Lock()
	h, ok := r.jobs[kind]
	if !ok {
		r.mu.Unlock()
		return false
	}
	select {
	case <-h.done:
		r.mu.Unlock()
		return false
	default:
	}
	h.mu.Lock()
	h.pausing = pause
	h.mu.Unlock()
	r.mu.Unlock()

	h.cancel()
	// no orphaned background work: wait for the job's actual termination
	<-h.done
	return true
}

// IsRunning reports whether an instance of the kind is in flight.
func (r *JobRegistry) IsRunning(kind string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.jobs[kind]
	if !ok {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// State returns the externally visible state of the job kind.
func (r *JobRegistry) State(kind string) model.FarmJobState {
	r.mu.Lock()
	h, ok := r.jobs[kind]
	r.mu.Unlock()

	if !ok {
		return model.FarmJobState{Kind: kind, Status: model.JobIdle}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return model.FarmJobState{
		Kind:      kind,
		Status:    h.status,
		StartedAt: h.startedAt,
		Processed: h.processed,
		Total:     h.total,
	}
}

// Shutdown stops every running job and waits for each to terminate.
func (r *JobRegistry) Shutdown() {
	r.mu.Lock()
	kinds := make([]string, 0, len(r.jobs))
	for kind := range r.jobs {
		kinds = append(kinds, kind)
	}
	r.mu.Unlock()

	for _, kind := range kinds {
		r.Stop(kind)
	}
}
