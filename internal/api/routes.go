package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bzd-chat/gateway/internal/auth"
)

// routes builds the router. Every /api route runs through the same chain:
// request id, observation, panic recovery, rate limiting. /metrics bypasses
// it. Routes live on the root router so a wrong method yields 405.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	if s.metrics != nil && s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := func(method, path string, h http.HandlerFunc) {
		r.Handle("/api"+path, s.chain(h)).Methods(method)
	}

	private := s.requireAuth()
	session := s.optionalAuth()

	api(http.MethodGet, "/healthz", s.handleHealth)

	api(http.MethodPost, "/auth/join", s.handleJoin)
	api(http.MethodPost, "/auth/complete", s.handleComplete)
	api(http.MethodGet, "/auth/me", session(s.handleMe))

	api(http.MethodGet, "/users", private(s.handleListUsers))
	api(http.MethodGet, "/users/{user_id}", private(s.handleUserDetail))

	api(http.MethodPost, "/contacts", private(s.handleCreateContacts))

	api(http.MethodGet, "/sources", private(s.handleListSources))
	api(http.MethodPost, "/sources", private(s.handleCreateSource))

	api(http.MethodPost, "/messages", private(s.handleCreateMessage))

	api(http.MethodGet, "/topics", private(s.handleListTopics))
	api(http.MethodPost, "/topics", private(s.handleCreateTopic))
	api(http.MethodPost, "/topics/users", private(s.handleCreateTopicUser))
	api(http.MethodDelete, "/topics/users", private(s.handleDeleteTopicUser))

	return r
}

// chain wraps an /api handler in the request middleware, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	middleware := []mux.MiddlewareFunc{s.requestID, s.observe, s.recoverPanic, s.rateLimit}
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// requireAuth rejects unauthenticated requests and records the caller for
// logs and the audit trail.
func (s *Server) requireAuth() func(http.HandlerFunc) http.HandlerFunc {
	guard := s.guard.Require(s.writeFailure)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return guard(trackCaller(next))
	}
}

func (s *Server) optionalAuth() func(http.HandlerFunc) http.HandlerFunc {
	guard := s.guard.Optional()
	return func(next http.HandlerFunc) http.HandlerFunc {
		return guard(trackCaller(next))
	}
}

func trackCaller(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if info := infoFrom(r.Context()); info != nil {
			info.userID = auth.PrincipalFrom(r.Context()).String()
		}
		next(w, r)
	}
}

// caller returns the authenticated user. Handlers behind requireAuth always
// have one.
func caller(r *http.Request) string {
	userID, _ := auth.UserID(r.Context())
	return userID
}
