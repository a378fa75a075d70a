package api

import (
	"net/http"

	"github.com/bzd-chat/gateway/internal/backend"
)

// createMessageRequest is either a reply (MessageID) or the start of a new
// thread (TopicIDs). A reply wins when both are present.
type createMessageRequest struct {
	Text      *string  `json:"text"`
	Code      *string  `json:"code"`
	MessageID *string  `json:"message_id"`
	TopicIDs  []string `json:"topic_ids"`
}

type createMessageResponse struct {
	Message messageView `json:"message"`
}

type messageView struct {
	MessageID string `json:"message_id"`
}

// toBackend selects the backend variant.
func (req createMessageRequest) toBackend(userID string) (*backend.CreateMessageRequest, error) {
	text, err := required(req.Text, "text")
	if err != nil {
		return nil, err
	}
	code, err := required(req.Code, "code")
	if err != nil {
		return nil, err
	}

	out := &backend.CreateMessageRequest{
		Text:   backend.String(text),
		Code:   backend.String(code),
		UserID: backend.String(userID),
	}
	switch {
	case req.MessageID != nil:
		out.Regular = &backend.RegularMessage{MessageID: req.MessageID}
	case len(req.TopicIDs) > 0:
		out.Starting = &backend.StartingMessage{TopicIDs: req.TopicIDs}
	default:
		return nil, badRequest("either message_id or topic_ids is required")
	}
	return out, nil
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	in, err := req.toBackend(caller(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.backends.Messages.CreateMessage(r.Context(), in)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	id, err := backend.Require(res.MessageID, backend.MessagesCreateMessage, "message_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, createMessageResponse{Message: messageView{MessageID: id}})
}
