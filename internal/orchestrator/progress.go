package orchestrator

import "time"

// ProgressFunc receives periodic batch progress. Implementations are
// typically chat notifications, so emission is throttled rather than
// per-item.
type ProgressFunc func(processed, total int)

// progressReporter emits at most once per interval and only when progress
// advanced by the minimum increment. Flush always emits the final position.
type progressReporter struct {
	fn           ProgressFunc
	minInterval  time.Duration
	minIncrement int

	lastEmit  time.Time
	lastCount int
}

func newProgressReporter(fn ProgressFunc, minInterval time.Duration, minIncrement int) *progressReporter {
	return &progressReporter{
		fn:           fn,
		minInterval:  minInterval,
		minIncrement: minIncrement,
	}
}

func (p *progressReporter) Report(processed, total int) {
	if p.fn == nil {
		return
	}
	if processed-p.lastCount < p.minIncrement {
		return
	}
	if time.Since(p.lastEmit) < p.minInterval {
		return
	}
	p.lastEmit = time.Now()
	p.lastCount = processed
	p.fn(processed, total)
}

func (p *progressReporter) Flush(processed, total int) {
	if p.fn == nil || processed == p.lastCount {
		return
	}
	p.fn(processed, total)
}
