package backend

import (
	"context"

	"google.golang.org/grpc"
)

const ContactsCreateContacts = "/bzd.users.ContactsService/CreateContacts"

// NewContact is one uploaded address-book entry.
type NewContact struct {
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Name            *string `json:"name,omitempty"`
	DeviceContactID *string `json:"device_contact_id,omitempty"`
}

type CreateContactsRequest struct {
	UserID   *string      `json:"user_id,omitempty"`
	Contacts []NewContact `json:"contacts"`
}

type CreateContactsResponse struct{}

type ContactsService interface {
	CreateContacts(ctx context.Context, in *CreateContactsRequest) (*CreateContactsResponse, error)
}

type ContactsClient struct {
	cc grpc.ClientConnInterface
}

func NewContactsClient(cc grpc.ClientConnInterface) *ContactsClient {
	return &ContactsClient{cc: cc}
}

func (c *ContactsClient) CreateContacts(ctx context.Context, in *CreateContactsRequest) (*CreateContactsResponse, error) {
	return invoke[CreateContactsRequest, CreateContactsResponse](ctx, c.cc, ContactsCreateContacts, in)
}
