package activity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promofarm/core-go/internal/model"
	"github.com/promofarm/core-go/internal/store"
)

func newDetectorFixture(t *testing.T, handler http.Handler, events []EventSpec) (*Detector, *store.ActivityStore) {
	t.Helper()
	dir := t.TempDir()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	activityStore := store.NewActivityStore(dir)
	cookieStore := store.NewCookieStore(dir)
	require.NoError(t, cookieStore.Save("ref-owner", "ref-uid", model.CookieSet{"sid": "ref"}))

	d := NewDetector(activityStore, cookieStore, srv.URL, "ref-owner", "ref-uid", 0, events)
	return d, activityStore
}

func TestDetectAll(t *testing.T) {
	t.Run("ungated event without markers is active", func(t *testing.T) {
		d, st := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><h1>Daily Attendance</h1></body></html>`)
		}), []EventSpec{{ID: "attendance", Path: "/event/attendance"}})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.True(t, verdicts["attendance"])
		assert.Equal(t, model.EventActive, d.Status("attendance"))

		persisted, err := st.Get("attendance")
		require.NoError(t, err)
		assert.True(t, persisted)
	})

	t.Run("inactive marker wins over everything", func(t *testing.T) {
		d, _ := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><p>El evento ha finalizado</p><span class="period">1/1 ~ 12/31</span></body></html>`)
		}), []EventSpec{{ID: "roulette", Path: "/event/roulette", DateGated: true, DateSelector: ".period"}})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.False(t, verdicts["roulette"])
	})

	t.Run("date gated event respects the printed range", func(t *testing.T) {
		now := time.Now().UTC()
		inRange := fmt.Sprintf("%d/%d 00:00:00 ~ %d/%d 23:59:59",
			int(now.Month()), 1, int(now.Month()), 28)

		d, _ := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<html><body><div class="event-period">%s</div></body></html>`, inRange)
		}), []EventSpec{{ID: "coupon", Path: "/event/coupon", DateGated: true, DateSelector: ".event-period"}})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.True(t, verdicts["coupon"])
	})

	t.Run("unparseable date fails closed to inactive", func(t *testing.T) {
		d, st := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><div class="event-period">soon!</div></body></html>`)
		}), []EventSpec{{ID: "coupon", Path: "/event/coupon", DateGated: true, DateSelector: ".event-period"}})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.False(t, verdicts["coupon"])
		assert.Equal(t, model.EventInactive, d.Status("coupon"))

		persisted, err := st.Get("coupon")
		require.NoError(t, err)
		assert.False(t, persisted)
	})

	t.Run("missing date node fails closed", func(t *testing.T) {
		d, _ := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body>nothing here</body></html>`)
		}), []EventSpec{{ID: "coupon", Path: "/event/coupon", DateGated: true, DateSelector: ".event-period"}})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.False(t, verdicts["coupon"])
	})

	t.Run("one failing event does not poison the pass", func(t *testing.T) {
		d, _ := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/event/broken" {
				fmt.Fprint(w, `<html><body><div class="p">??</div></body></html>`)
				return
			}
			fmt.Fprint(w, `<html><body>ok</body></html>`)
		}), []EventSpec{
			{ID: "broken", Path: "/event/broken", DateGated: true, DateSelector: ".p"},
			{ID: "attendance", Path: "/event/attendance"},
		})

		verdicts, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.False(t, verdicts["broken"])
		assert.True(t, verdicts["attendance"])
	})

	t.Run("reference session cookies reach the event page", func(t *testing.T) {
		var sawCookie bool
		d, _ := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("sid"); err == nil && c.Value == "ref" {
				sawCookie = true
			}
			fmt.Fprint(w, `<html><body>ok</body></html>`)
		}), []EventSpec{{ID: "attendance", Path: "/event/attendance"}})

		_, err := d.DetectAll(context.Background())
		require.NoError(t, err)
		assert.True(t, sawCookie)
	})
}

func TestIsActiveReadsCacheOnly(t *testing.T) {
	requests := 0
	d, st := newDetectorFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}), []EventSpec{{ID: "attendance", Path: "/event/attendance"}})

	require.NoError(t, st.ReplaceAll(map[string]bool{"attendance": true}))

	active, err := d.IsActive("attendance")
	require.NoError(t, err)
	assert.True(t, active)
	assert.Zero(t, requests, "cached read must not hit the site")
}
