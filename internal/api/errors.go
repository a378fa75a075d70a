package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/bzd-chat/gateway/internal/auth"
	"github.com/bzd-chat/gateway/internal/backend"
)

// API-layer errors.
var (
	// ErrBadRequest marks an inbound document that could not be decoded or
	// translated.
	ErrBadRequest = errors.New("BAD_REQUEST")

	// ErrRateLimited marks a request rejected by the limiter.
	ErrRateLimited = errors.New("RATE_LIMITED")
)

// Client-facing error codes, used in logs and the audit trail only.
const (
	CodeOK               = "OK"
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL"
)

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// StatusFor classifies err into an HTTP status and error code. Anything not
// recognized, including join faults, incomplete backend responses and
// transport failures, is Internal.
func StatusFor(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusOK, CodeOK
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, backend.ErrInvalidArgument):
		return http.StatusUnprocessableEntity, CodeValidationFailed
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, auth.ErrMissing),
		errors.Is(err, auth.ErrMalformed),
		errors.Is(err, auth.ErrInvalid),
		errors.Is(err, backend.ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeFailure logs err with request context and answers with the mapped
// status and an empty body.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := StatusFor(err)
	if info := infoFrom(r.Context()); info != nil {
		info.code = code
	}

	entry := s.requestLog(r).WithError(err).WithFields(logrus.Fields{
		"status": status,
		"code":   code,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}

	w.WriteHeader(status)
}
