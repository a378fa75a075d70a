package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bzd-chat/gateway/internal/aggregate"
	"github.com/bzd-chat/gateway/internal/auth"
	"github.com/bzd-chat/gateway/internal/backend"
)

func TestStatusFor(t *testing.T) {
	callErr := func(code codes.Code) error {
		return backend.Normalize("/svc/Method", status.Error(code, "detail"))
	}

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, http.StatusOK, CodeOK},
		{"bad request", badRequest("broken"), http.StatusBadRequest, CodeBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited},
		{"invalid argument", callErr(codes.InvalidArgument), http.StatusUnprocessableEntity, CodeValidationFailed},
		{"already exists", callErr(codes.AlreadyExists), http.StatusUnprocessableEntity, CodeValidationFailed},
		{"not found", callErr(codes.NotFound), http.StatusNotFound, CodeNotFound},
		{"backend unauthenticated", callErr(codes.Unauthenticated), http.StatusUnauthorized, CodeUnauthorized},
		{"auth missing", auth.ErrMissing, http.StatusUnauthorized, CodeUnauthorized},
		{"auth malformed", auth.ErrMalformed, http.StatusUnauthorized, CodeUnauthorized},
		{"auth invalid", fmt.Errorf("%w: expired", auth.ErrInvalid), http.StatusUnauthorized, CodeUnauthorized},
		{"unavailable", callErr(codes.Unavailable), http.StatusInternalServerError, CodeInternal},
		{"unknown code", callErr(codes.DataLoss), http.StatusInternalServerError, CodeInternal},
		{"unresolved join", &aggregate.JoinError{Entity: "source", EntityID: "s1", Ref: "user", RefID: "u2"}, http.StatusInternalServerError, CodeInternal},
		{"incomplete response", &backend.ContractError{Method: "/svc/Method", Field: "user"}, http.StatusInternalServerError, CodeInternal},
		{"step wrapping not found", &aggregate.StepError{Pipeline: "p", Step: 1, Method: "/svc/Method", Err: callErr(codes.NotFound)}, http.StatusNotFound, CodeNotFound},
		{"context canceled", context.Canceled, http.StatusInternalServerError, CodeInternal},
		{"plain", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStatus, gotCode := StatusFor(tt.err)
			assert.Equal(t, tt.status, gotStatus)
			assert.Equal(t, tt.code, gotCode)
		})
	}
}

func TestFailureLogDoesNotReachBody(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Sources = []backend.Source{{SourceID: backend.String("s1"), UserID: backend.String("U1")}}

	rec := env.do(t, http.MethodGet, "/api/users", "U1", "")
	requireFailure(t, rec, http.StatusInternalServerError)

	var failed bool
	for _, entry := range env.logs.AllEntries() {
		if entry.Message == "request failed" {
			failed = true
			assert.Equal(t, CodeInternal, entry.Data["code"])
			assert.Equal(t, "U1", entry.Data["user_id"])
			assert.Contains(t, fmt.Sprint(entry.Data["error"]), "source_user_id")
		}
	}
	assert.True(t, failed, "expected a failure log entry")
}
