package backend

import (
	"context"

	"google.golang.org/grpc"
)

const (
	UsersGetUser  = "/bzd.users.UsersService/GetUser"
	UsersGetUsers = "/bzd.users.UsersService/GetUsers"
)

// User is the backend's user profile record.
type User struct {
	UserID *string `json:"user_id,omitempty"`
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Abbr   *string `json:"abbr,omitempty"`
	Color  *string `json:"color,omitempty"`
}

type GetUserRequest struct {
	UserID *string `json:"user_id,omitempty"`
}

type GetUserResponse struct {
	User *User `json:"user,omitempty"`
}

type GetUsersRequest struct {
	UserIDs []string `json:"user_ids"`
}

type GetUsersResponse struct {
	Users []User `json:"users"`
}

// UsersService reads user profiles.
type UsersService interface {
	GetUser(ctx context.Context, in *GetUserRequest) (*GetUserResponse, error)
	GetUsers(ctx context.Context, in *GetUsersRequest) (*GetUsersResponse, error)
}

type UsersClient struct {
	cc grpc.ClientConnInterface
}

func NewUsersClient(cc grpc.ClientConnInterface) *UsersClient {
	return &UsersClient{cc: cc}
}

func (c *UsersClient) GetUser(ctx context.Context, in *GetUserRequest) (*GetUserResponse, error) {
	return invoke[GetUserRequest, GetUserResponse](ctx, c.cc, UsersGetUser, in)
}

func (c *UsersClient) GetUsers(ctx context.Context, in *GetUsersRequest) (*GetUsersResponse, error) {
	return invoke[GetUsersRequest, GetUsersResponse](ctx, c.cc, UsersGetUsers, in)
}
