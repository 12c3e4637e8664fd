package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("generates an ID", func(t *testing.T) {
		var seen string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		})

		rec := httptest.NewRecorder()
		RequestID(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cli/exec", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rec.Header().Get(HeaderRequestID))
	})

	t.Run("keeps the caller's ID", func(t *testing.T) {
		var seen string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodPost, "/api/cli/exec", nil)
		req.Header.Set(HeaderRequestID, "trace-me")
		rec := httptest.NewRecorder()
		RequestID(handler).ServeHTTP(rec, req)

		assert.Equal(t, "trace-me", seen)
		assert.Equal(t, "trace-me", rec.Header().Get(HeaderRequestID))
	})

	t.Run("replaces oversized IDs", func(t *testing.T) {
		var seen string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromContext(r.Context())
		})

		req := httptest.NewRequest(http.MethodPost, "/api/cli/exec", nil)
		req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLength+1))
		RequestID(handler).ServeHTTP(httptest.NewRecorder(), req)

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
	})
}

func TestRequestIDFromContext_Empty(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
