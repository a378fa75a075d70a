package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bzd-chat/gateway/internal/audit"
	"github.com/bzd-chat/gateway/internal/backend"
	"github.com/bzd-chat/gateway/internal/backend/fake"
)

func TestRequestIDIsAssigned(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/healthz", "", "")
	requireOK(t, rec)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := serve(env, req)

	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
}

func TestRequestIDRejectsArbitraryValues(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/healthz", nil)
	req.Header.Set(RequestIDHeader, "forged\nheader")
	rec := serve(env, req)

	assert.NotEqual(t, "forged\nheader", rec.Header().Get(RequestIDHeader))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestAuditRecordsEveryRequest(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Sources = []backend.Source{fake.Source("s1", "U1", "U2")}
	env.backend.Users = []backend.User{fake.User("U2")}

	requireOK(t, env.do(t, http.MethodGet, "/api/users", "U1", ""))
	requireFailure(t, env.do(t, http.MethodGet, "/api/users/U9", "U1", ""), http.StatusNotFound)
	requireFailure(t, env.do(t, http.MethodGet, "/api/topics", "", ""), http.StatusUnauthorized)

	lines := strings.Split(strings.TrimSpace(env.audit.String()), "\n")
	require.Len(t, lines, 3)

	entries := make([]audit.Entry, len(lines))
	for i, line := range lines {
		require.NoError(t, json.Unmarshal([]byte(line), &entries[i]))
	}

	assert.Equal(t, "U1", entries[0].User)
	assert.Equal(t, "/api/users", entries[0].Route)
	assert.Equal(t, audit.OutcomeSuccess, entries[0].Outcome)
	assert.NotEmpty(t, entries[0].RequestID)

	assert.Equal(t, "/api/users/{user_id}", entries[1].Route)
	assert.Equal(t, http.StatusNotFound, entries[1].Status)
	assert.Equal(t, CodeNotFound, entries[1].Code)
	assert.Equal(t, audit.OutcomeRejected, entries[1].Outcome)

	assert.Equal(t, "anonymous", entries[2].User)
	assert.Equal(t, CodeUnauthorized, entries[2].Code)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.RequestsPerSecond = 0.001
		o.Burst = 2
	})

	requireOK(t, env.do(t, http.MethodGet, "/api/healthz", "", ""))
	requireOK(t, env.do(t, http.MethodGet, "/api/healthz", "", ""))
	requireFailure(t, env.do(t, http.MethodGet, "/api/healthz", "", ""), http.StatusTooManyRequests)

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gateway_http_rate_limited_total 1")
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Sources = []backend.Source{fake.Source("s1", "U1", "U2")}
	env.backend.Users = []backend.User{fake.User("U2")}

	requireOK(t, env.do(t, http.MethodGet, "/api/users/U2", "U1", ""))

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `gateway_http_requests_total{method="GET",route="/api/users/{user_id}",status="200"} 1`)
}

func TestMetricsEndpointDisabled(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.MetricsPath = "" })

	rec := env.do(t, http.MethodGet, "/metrics", "", "")
	requireFailure(t, rec, http.StatusNotFound)
}

func TestRecoverPanic(t *testing.T) {
	env := newTestEnv(t)
	env.server.backends.Auth = nil

	rec := env.do(t, http.MethodPost, "/api/auth/join", "", `{"phone_number":"15551234567"}`)
	requireFailure(t, rec, http.StatusInternalServerError)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var entry audit.Entry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(env.audit.Bytes()), &entry))
	assert.Equal(t, "/api/auth/join", entry.Route)
	assert.Equal(t, http.StatusInternalServerError, entry.Status)
	assert.Equal(t, CodeInternal, entry.Code)
	assert.Equal(t, audit.OutcomeError, entry.Outcome)

	metricsRec := env.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(),
		`gateway_http_requests_total{method="POST",route="/api/auth/join",status="500"} 1`)

	last := env.logs.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "request completed", last.Message)
}
