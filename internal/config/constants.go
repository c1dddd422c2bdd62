package config

import "time"

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Remote game service timeouts and retries
const (
	GameRequestTimeout = 30 * time.Second
	BrowserStepTimeout = 45 * time.Second
	MaxTransportRetry  = 2
)

// Event activity cache freshness
const ActivityTTL = 10 * time.Minute

// Human-like pacing between warm-up requests
const (
	WarmupDelayMin = 400 * time.Millisecond
	WarmupDelayMax = 1600 * time.Millisecond
)

// Org-wide fan-out pacing between accounts
const OrgFanoutDelay = 2 * time.Second

// Progress callbacks are emitted at most this often during large batches
const (
	ProgressMinInterval  = 3 * time.Second
	ProgressMinIncrement = 5
)

// Batch summaries keep at most this many failure detail lines
const MaxFailureDetails = 10

// Shared call budget against the game service during fan-outs
const (
	PacerWindow = time.Minute
	PacerLimit  = 20
)

// Run report retention
const (
	PruneJobInterval = 6 * time.Hour
	ReportRetention  = 30 * 24 * time.Hour
)
