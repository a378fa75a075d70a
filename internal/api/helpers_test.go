package api

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/bzd-chat/gateway/internal/aggregate"
	"github.com/bzd-chat/gateway/internal/audit"
	"github.com/bzd-chat/gateway/internal/auth"
	"github.com/bzd-chat/gateway/internal/backend/fake"
	"github.com/bzd-chat/gateway/internal/metrics"
)

var (
	signingKeyOnce sync.Once
	signingKey     *rsa.PrivateKey
)

func testSigningKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	signingKeyOnce.Do(func() {
		var err error
		if signingKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
	})
	return signingKey
}

// testEnv is a server wired to an in-memory backend.
type testEnv struct {
	backend *fake.Backend
	server  *Server
	metrics *metrics.Collector
	audit   *bytes.Buffer
	logs    *logtest.Hook
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()

	key := testSigningKey(t)
	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		PublicKey:     &key.PublicKey,
		RequireExpiry: true,
	})
	require.NoError(t, err)

	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	b := fake.New()
	collector := metrics.NewCollector()
	auditBuf := &bytes.Buffer{}

	options := Options{MetricsPath: "/metrics"}
	for _, opt := range opts {
		opt(&options)
	}

	server, err := NewServer(Deps{
		Backends: Backends{
			Auth:     b,
			Users:    b,
			Contacts: b,
			Sources:  b,
			Messages: b,
			Topics:   b,
		},
		Aggregator: aggregate.NewEngine(b, b, b, log),
		Guard:      auth.NewGuard(verifier, log),
		Log:        log,
		Metrics:    collector,
		Audit:      audit.NewWriterLogger(auditBuf),
	}, options)
	require.NoError(t, err)

	return &testEnv{
		backend: b,
		server:  server,
		metrics: collector,
		audit:   auditBuf,
		logs:    hook,
	}
}

// token signs a valid credential for subject.
func token(t *testing.T, subject string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testSigningKey(t))
	require.NoError(t, err)
	return signed
}

// do sends a request. An empty user sends no credential.
func (e *testEnv) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, user))
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

// requireFailure asserts a failure status with an empty body.
func requireFailure(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code)
	require.Empty(t, rec.Body.String(), "failure responses must not carry a body")
}

func requireOK(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	require.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}
