package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regdesk/internal/availability"
	"regdesk/internal/registration/models"
	"regdesk/internal/registration/store/memory"
)

type failingLookup struct{}

func (failingLookup) Lookup(context.Context, string) (bool, error) {
	return false, errors.New("storage offline")
}

func newRouter(t *testing.T, registry availability.Lookup) http.Handler {
	t.Helper()
	svc, err := availability.New(registry)
	require.NoError(t, err)
	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return r
}

func post(t *testing.T, router http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/check-username", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&decoded))
	return rec, decoded
}

func TestCheckUsername(t *testing.T) {
	registry := memory.New()
	require.NoError(t, registry.Append(context.Background(), &models.Record{
		Username:     "newuser1",
		Skills:       []string{"go"},
		RegisteredAt: time.Now().UTC(),
	}))
	router := newRouter(t, registry)

	t.Run("taken", func(t *testing.T) {
		rec, body := post(t, router, `{"username":"NewUser1"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"ok": true, "taken": true}, body)
	})

	t.Run("available", func(t *testing.T) {
		rec, body := post(t, router, `{"username":"other"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["taken"])
	})

	for _, payload := range []string{`{}`, `{"username":""}`, `{"username":"  "}`} {
		t.Run("missing username "+payload, func(t *testing.T) {
			rec, body := post(t, router, payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "No username provided", body["message"])
			assert.Equal(t, false, body["ok"])
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		rec, body := post(t, router, `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", body["message"])
	})
}

func TestCheckUsernameStorageFailure(t *testing.T) {
	router := newRouter(t, failingLookup{})
	rec, body := post(t, router, `{"username":"alice"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Unable to check username", body["message"])
	assert.NotContains(t, body, "error", "storage details stay in the log")
}
