package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SetsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "trustchain", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(context.Background(), "", Budget{})
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{
		"User-Agent": "trustchain",
		"Accept":     "application/json",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestGet_WithToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token test-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(context.Background(), "test-token", Budget{})
	resp, err := c.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGet_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	c := NewClient(context.Background(), "", Budget{MaxBytes: 16})
	_, err := c.Get(context.Background(), srv.URL, nil)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestGet_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(context.Background(), "", Budget{Timeout: 50 * time.Millisecond})
	_, err := c.Get(context.Background(), srv.URL, nil)
	assert.Error(t, err)
}

func TestGet_BadURL(t *testing.T) {
	c := WrapClient(nil, Budget{})
	_, err := c.Get(context.Background(), "://nope", nil)
	assert.Error(t, err)
}

func TestDefaultBudget(t *testing.T) {
	b := Budget{}.withDefaults()
	assert.Equal(t, DefaultBudget(), b)

	b = Budget{Timeout: time.Second, MaxBytes: 10}.withDefaults()
	assert.Equal(t, time.Second, b.Timeout)
	assert.Equal(t, int64(10), b.MaxBytes)
}
