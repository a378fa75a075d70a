package api

import (
	"net/http"

	"github.com/bzd-chat/gateway/internal/backend"
)

type topicView struct {
	TopicID string `json:"topic_id"`
	Title   string `json:"title"`
}

func topicViewOf(t backend.Topic, method string) (topicView, error) {
	id, err := backend.Require(t.TopicID, method, "topic.topic_id")
	if err != nil {
		return topicView{}, err
	}
	title, err := backend.Require(t.Title, method, "topic.title")
	if err != nil {
		return topicView{}, err
	}
	return topicView{TopicID: id, Title: title}, nil
}

type listTopicsResponse struct {
	Topics []topicView `json:"topics"`
}

// handleListTopics returns the topics owned by the caller.
func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	res, err := s.backends.Topics.GetTopics(r.Context(), &backend.GetTopicsRequest{UserIDs: []string{caller(r)}})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	out := listTopicsResponse{Topics: make([]topicView, 0, len(res.Topics))}
	for _, t := range res.Topics {
		view, err := topicViewOf(t, backend.TopicsGetTopics)
		if err != nil {
			s.writeFailure(w, r, err)
			return
		}
		out.Topics = append(out.Topics, view)
	}
	s.respond(w, r, out)
}

type createTopicRequest struct {
	Title *string `json:"title"`
}

type createTopicResponse struct {
	Topic topicView `json:"topic"`
}

// handleCreateTopic creates a topic and reads it back, so the returned
// entity always comes from GetTopic.
func (s *Server) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	title, err := required(req.Title, "title")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	userID := caller(r)

	created, err := s.backends.Topics.CreateTopic(r.Context(), &backend.CreateTopicRequest{
		Title:  backend.String(title),
		UserID: backend.String(userID),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	topicID, err := backend.Require(created.TopicID, backend.TopicsCreateTopic, "topic_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.backends.Topics.GetTopic(r.Context(), &backend.GetTopicRequest{
		TopicID: backend.String(topicID),
		UserID:  backend.String(userID),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	topic, err := backend.Require(res.Topic, backend.TopicsGetTopic, "topic")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	view, err := topicViewOf(topic, backend.TopicsGetTopic)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, createTopicResponse{Topic: view})
}

type createTopicUserRequest struct {
	TopicID *string `json:"topic_id"`
}

type createTopicUserResponse struct {
	TopicUser topicUserView `json:"topic_user"`
}

type topicUserView struct {
	TopicUserID string `json:"topic_user_id"`
}

// handleCreateTopicUser joins the caller to a topic.
func (s *Server) handleCreateTopicUser(w http.ResponseWriter, r *http.Request) {
	var req createTopicUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	topicID, err := required(req.TopicID, "topic_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.backends.Topics.CreateTopicUser(r.Context(), &backend.CreateTopicUserRequest{
		TopicID: backend.String(topicID),
		UserID:  backend.String(caller(r)),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	id, err := backend.Require(res.TopicUserID, backend.TopicsCreateTopicUser, "topic_user_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, createTopicUserResponse{TopicUser: topicUserView{TopicUserID: id}})
}

type deleteTopicUserRequest struct {
	TopicUserID *string `json:"topic_user_id"`
}

// handleDeleteTopicUser removes one of the caller's memberships.
func (s *Server) handleDeleteTopicUser(w http.ResponseWriter, r *http.Request) {
	var req deleteTopicUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	topicUserID, err := required(req.TopicUserID, "topic_user_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	_, err = s.backends.Topics.DeleteTopicUser(r.Context(), &backend.DeleteTopicUserRequest{
		TopicUserID: backend.String(topicUserID),
		UserID:      backend.String(caller(r)),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.respond(w, r, empty{})
}
