package api

import (
	"net/http"

	"github.com/bzd-chat/gateway/internal/backend"
)

type createSourceRequest struct {
	UserID *string `json:"user_id"`
}

type createSourceResponse struct {
	SourceID string `json:"source_id"`
}

// handleCreateSource makes the given user a source of the caller.
func (s *Server) handleCreateSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	target, err := required(req.UserID, "user_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.backends.Sources.CreateSource(r.Context(), &backend.CreateSourceRequest{
		UserID:       backend.String(caller(r)),
		SourceUserID: backend.String(target),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	id, err := backend.Require(res.SourceID, backend.SourcesCreateSource, "source_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, createSourceResponse{SourceID: id})
}

// handleListSources returns the caller's sources with the topics each
// source's user participates in.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	view, err := s.aggregator.ListSourcesWithTopics(r.Context(), caller(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.respond(w, r, view)
}
