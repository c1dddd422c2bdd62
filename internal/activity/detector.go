// Package activity decides whether the site's promotional events are
// currently running. Detection scrapes each event page through one shared
// authenticated context; consumers read the cached verdicts cheaply.
package activity

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/store"
)

// EventSpec describes one promotional event the detector watches.
type EventSpec struct {
	ID   string
	Path string
	// DateGated events print a "start ~ end" range; the selector locates it.
	DateGated    bool
	DateSelector string
}

// Phrases the site shows, in its supported locales, when an event is not
// running. Any match classifies the event inactive immediately.
var inactiveMarkers = []string{
	"event has not started",
	"event has ended",
	"coming soon",
	"evento ainda não começou",
	"evento encerrado",
	"el evento no ha comenzado",
	"el evento ha finalizado",
}

// Detector runs full activity passes and maintains the persisted activity
// map. One record set is global: event activity is server-side state, not
// per-account.
type Detector struct {
	activity *store.ActivityStore
	cookies  *store.CookieStore
	baseURL  string
	refOwner string
	refUID   string
	// serverSkew is the remote server's apparent offset from UTC; page date
	// ranges are compared against skewed time.
	serverSkew time.Duration
	events     []EventSpec

	mu    sync.Mutex
	state map[string]model.EventStatus
}

func NewDetector(
	activity *store.ActivityStore,
	cookies *store.CookieStore,
	baseURL, refOwner, refUID string,
	serverSkew time.Duration,
	events []EventSpec,
) *Detector {
	return &Detector{
		activity:   activity,
		cookies:    cookies,
		baseURL:    baseURL,
		refOwner:   refOwner,
		refUID:     refUID,
		serverSkew: serverSkew,
		events:     events,
		state:      make(map[string]model.EventStatus),
	}
}

// Events returns the watched event specs.
func (d *Detector) Events() []EventSpec {
	return d.events
}

// Status returns the in-memory state machine position for an event.
func (d *Detector) Status(eventID string) model.EventStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.state[eventID]; ok {
		return s
	}
	return model.EventUnknown
}

func (d *Detector) setStatus(eventID string, s model.EventStatus) {
	d.mu.Lock()
	d.state[eventID] = s
	d.mu.Unlock()
}

// IsActive reads the last persisted verdict. It never triggers detection;
// freshness enforcement is the orchestrator's job.
func (d *Detector) IsActive(eventID string) (bool, error) {
	return d.activity.Get(eventID)
}

// Stale reports whether the persisted map is older than ttl.
func (d *Detector) Stale(ttl time.Duration) bool {
	return d.activity.Stale(ttl)
}

// DetectAll checks every watched event in one authenticated pass and
// persists the full map. Parse trouble on a single event classifies that
// event inactive (never active when uncertain) and the pass continues.
func (d *Detector) DetectAll(ctx context.Context) (map[string]bool, error) {
	refCookies, err := d.cookies.Load(d.refOwner, d.refUID)
	if err != nil {
		return nil, apperrors.Storage(err)
	}

	// Detection technically executes as the reference account, but the
	// verdicts are account-agnostic.
	sess, err := gameclient.NewSession(d.refOwner, model.Account{UID: d.refUID}, d.baseURL)
	if err != nil {
		return nil, apperrors.Internal("could not build detection session").WithCause(err)
	}
	sess.SeedCookies(refCookies)

	now := time.Now().UTC().Add(d.serverSkew)
	verdicts := make(map[string]bool, len(d.events))

	for _, ev := range d.events {
		d.setStatus(ev.ID, model.EventChecking)

		active, err := d.detectOne(ctx, sess, ev, now)
		if err != nil {
			// fail closed
			log.Warn().Str("event", ev.ID).Err(err).Msg("activity detection failed, marking inactive")
			active = false
		}
		verdicts[ev.ID] = active
		if active {
			d.setStatus(ev.ID, model.EventActive)
		} else {
			d.setStatus(ev.ID, model.EventInactive)
		}
	}

	if err := d.activity.ReplaceAll(verdicts); err != nil {
		return nil, apperrors.Storage(err)
	}

	log.Info().Int("events", len(verdicts)).Msg("activity detection pass complete")
	return verdicts, nil
}

func (d *Detector) detectOne(ctx context.Context, sess *gameclient.Session, ev EventSpec, now time.Time) (bool, error) {
	req, err := sess.NewRequest(http.MethodGet, ev.Path)
	if err != nil {
		return false, err
	}
	resp, err := sess.Client.Do(req.WithContext(ctx))
	if err != nil {
		return false, apperrors.Transport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return false, apperrors.Transport(err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return false, apperrors.ActivityParse(ev.ID, err)
	}

	return d.classify(doc, ev, now)
}

// classify checks inactive markers first, then the date gate, defaulting
// to active for ungated events.
func (d *Detector) classify(doc *goquery.Document, ev EventSpec, now time.Time) (bool, error) {
	text := strings.ToLower(doc.Text())
	for _, marker := range inactiveMarkers {
		if strings.Contains(text, marker) {
			return false, nil
		}
	}

	if !ev.DateGated {
		return true, nil
	}

	rangeText := strings.TrimSpace(doc.Find(ev.DateSelector).First().Text())
	if rangeText == "" {
		return false, apperrors.ActivityParse(ev.ID, nil)
	}

	start, end, err := ParseDateRange(rangeText, now)
	if err != nil {
		return false, apperrors.ActivityParse(ev.ID, err)
	}
	return InRange(now, start, end), nil
}
