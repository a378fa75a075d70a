package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/bzd-chat/gateway/internal/audit"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const infoKey contextKey = "request-info"

// requestInfo is filled in as the request passes through the middleware
// chain and read back once the handler returns.
type requestInfo struct {
	id     string
	userID string
	code   string
}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(infoKey).(*requestInfo)
	return info
}

// requestID assigns the request id, reusing a well-formed inbound one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), infoKey, &requestInfo{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// recoverPanic turns a handler panic into an Internal failure.
func (s *Server) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.writeFailure(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

// observe reports every request to metrics, the audit trail and the access
// log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if s.metrics != nil {
			done := s.metrics.RequestStarted()
			defer done()
		}

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		latency := time.Since(start)
		route := routeOf(r)

		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, status, latency)
		}

		info := infoFrom(r.Context())
		if info == nil {
			info = &requestInfo{}
		}
		if s.audit != nil {
			s.audit.Record(audit.Entry{
				RequestID: info.id,
				User:      info.userID,
				Method:    r.Method,
				Route:     route,
				Status:    status,
				Code:      info.code,
				LatencyMs: float64(latency.Microseconds()) / 1000,
			})
		}

		s.requestLog(r).WithFields(logrus.Fields{
			"status":  status,
			"latency": latency,
		}).Info("request completed")
	})
}

// rateLimit rejects requests once the global limiter is exhausted.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			if s.metrics != nil {
				s.metrics.RateLimited()
			}
			s.writeFailure(w, r, ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// routeOf returns the matched route template, keeping path parameters out
// of metric labels.
func routeOf(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// requestLog returns a log entry carrying the request context.
func (s *Server) requestLog(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{
		"method": r.Method,
		"route":  routeOf(r),
	}
	if info := infoFrom(r.Context()); info != nil {
		fields["request_id"] = info.id
		if info.userID != "" {
			fields["user_id"] = info.userID
		}
	}
	return s.log.WithFields(fields)
}
