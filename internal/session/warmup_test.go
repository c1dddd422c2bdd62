package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/promofarm/core-go/internal/errors"
	"github.com/promofarm/core-go/internal/gameclient"
	"github.com/promofarm/core-go/internal/model"
)

func newWarmupServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "logged-in", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "auth", Value: "tok", Path: "/"})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &paths
}

func fastProvisioner(baseURL string) *WarmupProvisioner {
	return NewWarmupProvisioner(baseURL).
		WithWarmupPaths("/pixel", "/", "/ajax/ping").
		WithDelays(time.Millisecond, 2*time.Millisecond).
		WithRetry(gameclient.RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1})
}

func TestWarmupProvisioner(t *testing.T) {
	t.Run("walks warm-up sequence in order then login", func(t *testing.T) {
		srv, paths := newWarmupServer(t)
		p := fastProvisioner(srv.URL)

		set, err := p.Provision(context.Background(), "owner1", model.Account{
			UID: "100", LoginURL: srv.URL + "/login",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"/pixel", "/", "/ajax/ping", "/login"}, *paths)
		assert.Equal(t, "logged-in", set["sid"])
		assert.Equal(t, "tok", set["auth"])
	})

	t.Run("missing login reference is rejected before any request", func(t *testing.T) {
		srv, paths := newWarmupServer(t)
		p := fastProvisioner(srv.URL)

		_, err := p.Provision(context.Background(), "owner1", model.Account{UID: "100"})
		assert.Equal(t, apperrors.ErrCodeMissingCredentialRef, apperrors.GetCode(err))
		assert.Empty(t, *paths)
	})

	t.Run("no cookies after full flow is an empty session", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()

		p := fastProvisioner(srv.URL)
		_, err := p.Provision(context.Background(), "owner1", model.Account{
			UID: "100", LoginURL: srv.URL + "/login",
		})
		assert.Equal(t, apperrors.ErrCodeEmptySession, apperrors.GetCode(err))
	})

	t.Run("unreachable host surfaces a transport error", func(t *testing.T) {
		p := fastProvisioner("http://127.0.0.1:1")
		_, err := p.Provision(context.Background(), "owner1", model.Account{
			UID: "100", LoginURL: "http://127.0.0.1:1/login",
		})
		assert.Equal(t, apperrors.ErrCodeTransport, apperrors.GetCode(err))
	})

	t.Run("cancellation aborts between warm-up steps", func(t *testing.T) {
		srv, _ := newWarmupServer(t)
		p := NewWarmupProvisioner(srv.URL).
			WithWarmupPaths("/a", "/b").
			WithDelays(time.Hour, 2*time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := p.Provision(ctx, "owner1", model.Account{UID: "100", LoginURL: srv.URL + "/login"})
		assert.Equal(t, apperrors.ErrCodeTransport, apperrors.GetCode(err))
	})
}
