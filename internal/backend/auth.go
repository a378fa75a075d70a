package backend

import (
	"context"

	"google.golang.org/grpc"
)

const (
	AuthJoin     = "/bzd.users.AuthService/Join"
	AuthComplete = "/bzd.users.AuthService/Complete"
)

type JoinRequest struct {
	PhoneNumber *int64 `json:"phone_number,omitempty"`
}

type JoinResponse struct {
	Verification *Verification `json:"verification,omitempty"`
}

type Verification struct {
	VerificationID *string `json:"verification_id,omitempty"`
}

type CompleteRequest struct {
	VerificationID *string `json:"verification_id,omitempty"`
	Code           *string `json:"code,omitempty"`
}

type CompleteResponse struct {
	JWT *string `json:"jwt,omitempty"`
}

// AuthService starts and completes phone verification.
type AuthService interface {
	Join(ctx context.Context, in *JoinRequest) (*JoinResponse, error)
	Complete(ctx context.Context, in *CompleteRequest) (*CompleteResponse, error)
}

// AuthClient is the gRPC implementation of AuthService.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) Join(ctx context.Context, in *JoinRequest) (*JoinResponse, error) {
	return invoke[JoinRequest, JoinResponse](ctx, c.cc, AuthJoin, in)
}

func (c *AuthClient) Complete(ctx context.Context, in *CompleteRequest) (*CompleteResponse, error) {
	return invoke[CompleteRequest, CompleteResponse](ctx, c.cc, AuthComplete, in)
}

// invoke performs one unary call and normalizes its failure.
func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out); err != nil {
		return nil, Normalize(method, err)
	}
	return out, nil
}
