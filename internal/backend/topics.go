package backend

import (
	"context"

	"google.golang.org/grpc"
)

const (
	TopicsGetTopics       = "/bzd.messages.TopicsService/GetTopics"
	TopicsGetTopic        = "/bzd.messages.TopicsService/GetTopic"
	TopicsCreateTopic     = "/bzd.messages.TopicsService/CreateTopic"
	TopicsGetTopicsUsers  = "/bzd.messages.TopicsService/GetTopicsUsers"
	TopicsCreateTopicUser = "/bzd.messages.TopicsService/CreateTopicUser"
	TopicsDeleteTopicUser = "/bzd.messages.TopicsService/DeleteTopicUser"
)

type Topic struct {
	TopicID *string `json:"topic_id,omitempty"`
	UserID  *string `json:"user_id,omitempty"`
	Title   *string `json:"title,omitempty"`
}

// TopicUser is a membership of a user in a topic.
type TopicUser struct {
	TopicUserID *string `json:"topic_user_id,omitempty"`
	TopicID     *string `json:"topic_id,omitempty"`
	UserID      *string `json:"user_id,omitempty"`
}

type GetTopicsRequest struct {
	UserIDs []string `json:"user_ids"`
}

type GetTopicsResponse struct {
	Topics []Topic `json:"topics"`
}

type GetTopicRequest struct {
	TopicID *string `json:"topic_id,omitempty"`
	UserID  *string `json:"user_id,omitempty"`
}

type GetTopicResponse struct {
	Topic *Topic `json:"topic,omitempty"`
}

type CreateTopicRequest struct {
	Title  *string `json:"title,omitempty"`
	UserID *string `json:"user_id,omitempty"`
}

type CreateTopicResponse struct {
	TopicID *string `json:"topic_id,omitempty"`
}

type GetTopicsUsersRequest struct {
	TopicIDs []string `json:"topic_ids"`
	UserIDs  []string `json:"user_ids"`
}

type GetTopicsUsersResponse struct {
	TopicsUsers []TopicUser `json:"topics_users"`
}

type CreateTopicUserRequest struct {
	TopicID *string `json:"topic_id,omitempty"`
	UserID  *string `json:"user_id,omitempty"`
}

type CreateTopicUserResponse struct {
	TopicUserID *string `json:"topic_user_id,omitempty"`
}

type DeleteTopicUserRequest struct {
	TopicUserID *string `json:"topic_user_id,omitempty"`
	UserID      *string `json:"user_id,omitempty"`
}

type DeleteTopicUserResponse struct{}

// TopicsService manages topics and their memberships.
type TopicsService interface {
	GetTopics(ctx context.Context, in *GetTopicsRequest) (*GetTopicsResponse, error)
	GetTopic(ctx context.Context, in *GetTopicRequest) (*GetTopicResponse, error)
	CreateTopic(ctx context.Context, in *CreateTopicRequest) (*CreateTopicResponse, error)
	GetTopicsUsers(ctx context.Context, in *GetTopicsUsersRequest) (*GetTopicsUsersResponse, error)
	CreateTopicUser(ctx context.Context, in *CreateTopicUserRequest) (*CreateTopicUserResponse, error)
	DeleteTopicUser(ctx context.Context, in *DeleteTopicUserRequest) (*DeleteTopicUserResponse, error)
}

type TopicsClient struct {
	cc grpc.ClientConnInterface
}

func NewTopicsClient(cc grpc.ClientConnInterface) *TopicsClient {
	return &TopicsClient{cc: cc}
}

func (c *TopicsClient) GetTopics(ctx context.Context, in *GetTopicsRequest) (*GetTopicsResponse, error) {
	return invoke[GetTopicsRequest, GetTopicsResponse](ctx, c.cc, TopicsGetTopics, in)
}

func (c *TopicsClient) GetTopic(ctx context.Context, in *GetTopicRequest) (*GetTopicResponse, error) {
	return invoke[GetTopicRequest, GetTopicResponse](ctx, c.cc, TopicsGetTopic, in)
}

func (c *TopicsClient) CreateTopic(ctx context.Context, in *CreateTopicRequest) (*CreateTopicResponse, error) {
	return invoke[CreateTopicRequest, CreateTopicResponse](ctx, c.cc, TopicsCreateTopic, in)
}

func (c *TopicsClient) GetTopicsUsers(ctx context.Context, in *GetTopicsUsersRequest) (*GetTopicsUsersResponse, error) {
	return invoke[GetTopicsUsersRequest, GetTopicsUsersResponse](ctx, c.cc, TopicsGetTopicsUsers, in)
}

func (c *TopicsClient) CreateTopicUser(ctx context.Context, in *CreateTopicUserRequest) (*CreateTopicUserResponse, error) {
	return invoke[CreateTopicUserRequest, CreateTopicUserResponse](ctx, c.cc, TopicsCreateTopicUser, in)
}

func (c *TopicsClient) DeleteTopicUser(ctx context.Context, in *DeleteTopicUserRequest) (*DeleteTopicUserResponse, error) {
	return invoke[DeleteTopicUserRequest, DeleteTopicUserResponse](ctx, c.cc, TopicsDeleteTopicUser, in)
}
