package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskstream/taskstream-api/internal/api/shared"
)

func TestTraceMiddleware(t *testing.T) {
	var captured string
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = shared.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, captured, "Expected handler to see a trace ID")
	assert.Len(t, captured, 32)
}

func TestTraceMiddlewareAssignsDistinctIDs(t *testing.T) {
	seen := make(map[string]bool)
	handler := TraceMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[shared.GetTraceID(r.Context())] = true
	}))

	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks", nil))
	}

	assert.Len(t, seen, 5, "Expected a fresh trace ID per request")
}

func TestUserIDMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   *string
	}{
		{name: "header present", header: "alice", want: strPtr("alice")},
		{name: "header trimmed", header: "  bob  ", want: strPtr("bob")},
		{name: "blank header is anonymous", header: "   ", want: nil},
		{name: "absent header is anonymous", header: "", want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured *string
			handler := UserIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = shared.GetUserID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("X-User-ID", tc.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if tc.want == nil {
				assert.Nil(t, captured)
				return
			}
			require.NotNil(t, captured)
			assert.Equal(t, *tc.want, *captured)
		})
	}
}

func strPtr(s string) *string {
	return &s
}
