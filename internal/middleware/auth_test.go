package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		m := NewAuthMiddleware("secret")
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		m := NewAuthMiddleware("secret")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer token accepted", func(t *testing.T) {
		m := NewAuthMiddleware("secret")
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("query token accepted", func(t *testing.T) {
		m := NewAuthMiddleware("secret")
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?token=secret", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("empty configured token disables auth", func(t *testing.T) {
		m := NewAuthMiddleware("")
		rec := httptest.NewRecorder()
		m.Handler(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestBodyLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	m := NewBodyLimitMiddleware(10)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 100
	rec := httptest.NewRecorder()
	m.Handler(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
