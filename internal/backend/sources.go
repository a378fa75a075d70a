package backend

import (
	"context"

	"google.golang.org/grpc"
)

const (
	SourcesGetSources   = "/bzd.users.SourcesService/GetSources"
	SourcesGetSource    = "/bzd.users.SourcesService/GetSource"
	SourcesCreateSource = "/bzd.users.SourcesService/CreateSource"
)

// Source links an owning user to the user they follow.
type Source struct {
	SourceID     *string `json:"source_id,omitempty"`
	UserID       *string `json:"user_id,omitempty"`
	SourceUserID *string `json:"source_user_id,omitempty"`
}

// Contact is an address-book entry of the owning user that resolved to a
// registered user.
type Contact struct {
	ContactID     *string `json:"contact_id,omitempty"`
	UserID        *string `json:"user_id,omitempty"`
	ContactUserID *string `json:"contact_user_id,omitempty"`
	Name          *string `json:"name,omitempty"`
}

type GetSourcesRequest struct {
	UserID *string `json:"user_id,omitempty"`
}

type GetSourcesResponse struct {
	Sources  []Source  `json:"sources"`
	Contacts []Contact `json:"contacts"`
}

type GetSourceRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	SourceUserID *string `json:"source_user_id,omitempty"`
}

type GetSourceResponse struct {
	Source *Source `json:"source,omitempty"`
}

type CreateSourceRequest struct {
	UserID       *string `json:"user_id,omitempty"`
	SourceUserID *string `json:"source_user_id,omitempty"`
}

type CreateSourceResponse struct {
	SourceID *string `json:"source_id,omitempty"`
}

// SourcesService manages the relations of a user to other users.
type SourcesService interface {
	GetSources(ctx context.Context, in *GetSourcesRequest) (*GetSourcesResponse, error)
	GetSource(ctx context.Context, in *GetSourceRequest) (*GetSourceResponse, error)
	CreateSource(ctx context.Context, in *CreateSourceRequest) (*CreateSourceResponse, error)
}

type SourcesClient struct {
	cc grpc.ClientConnInterface
}

func NewSourcesClient(cc grpc.ClientConnInterface) *SourcesClient {
	return &SourcesClient{cc: cc}
}

func (c *SourcesClient) GetSources(ctx context.Context, in *GetSourcesRequest) (*GetSourcesResponse, error) {
	return invoke[GetSourcesRequest, GetSourcesResponse](ctx, c.cc, SourcesGetSources, in)
}

func (c *SourcesClient) GetSource(ctx context.Context, in *GetSourceRequest) (*GetSourceResponse, error) {
	return invoke[GetSourceRequest, GetSourceResponse](ctx, c.cc, SourcesGetSource, in)
}

func (c *SourcesClient) CreateSource(ctx context.Context, in *CreateSourceRequest) (*CreateSourceResponse, error) {
	return invoke[CreateSourceRequest, CreateSourceResponse](ctx, c.cc, SourcesCreateSource, in)
}
