package backend

import (
	"context"

	"google.golang.org/grpc"
)

const MessagesCreateMessage = "/bzd.messages.MessagesService/CreateMessage"

// CreateMessageRequest carries exactly one of Regular or Starting.
type CreateMessageRequest struct {
	Text     *string          `json:"text,omitempty"`
	UserID   *string          `json:"user_id,omitempty"`
	Code     *string          `json:"code,omitempty"`
	Regular  *RegularMessage  `json:"regular,omitempty"`
	Starting *StartingMessage `json:"starting,omitempty"`
}

// RegularMessage replies within an existing thread.
type RegularMessage struct {
	MessageID *string `json:"message_id,omitempty"`
}

// StartingMessage opens a new thread in the given topics.
type StartingMessage struct {
	TopicIDs []string `json:"topic_ids"`
}

type CreateMessageResponse struct {
	MessageID *string `json:"message_id,omitempty"`
}

type MessagesService interface {
	CreateMessage(ctx context.Context, in *CreateMessageRequest) (*CreateMessageResponse, error)
}

type MessagesClient struct {
	cc grpc.ClientConnInterface
}

func NewMessagesClient(cc grpc.ClientConnInterface) *MessagesClient {
	return &MessagesClient{cc: cc}
}

func (c *MessagesClient) CreateMessage(ctx context.Context, in *CreateMessageRequest) (*CreateMessageResponse, error) {
	return invoke[CreateMessageRequest, CreateMessageResponse](ctx, c.cc, MessagesCreateMessage, in)
}
