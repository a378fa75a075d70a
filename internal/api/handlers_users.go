package api

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gorilla/mux"

	"github.com/bzd-chat/gateway/internal/backend"
)

// handleListUsers returns the caller's sources and contacts joined to user
// profiles.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	view, err := s.aggregator.ListRelations(r.Context(), caller(r))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.respond(w, r, view)
}

// handleUserDetail returns the caller's source for one user together with
// that user's topics.
func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	target, err := pathUserID(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	view, err := s.aggregator.SourceDetail(r.Context(), caller(r), target)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.respond(w, r, view)
}

func pathUserID(r *http.Request) (string, error) {
	id := mux.Vars(r)["user_id"]
	if strings.TrimSpace(id) == "" {
		return "", badRequest("user_id is blank")
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", badRequest("user_id contains whitespace")
	}
	return id, nil
}

type createContactsRequest struct {
	Contacts []newContact `json:"contacts"`
}

type newContact struct {
	PhoneNumber     *string `json:"phone_number"`
	Name            *string `json:"name"`
	DeviceContactID *string `json:"device_contact_id"`
}

func (s *Server) handleCreateContacts(w http.ResponseWriter, r *http.Request) {
	var req createContactsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if req.Contacts == nil {
		s.writeFailure(w, r, badRequest("missing field %q", "contacts"))
		return
	}

	contacts := make([]backend.NewContact, 0, len(req.Contacts))
	for i, c := range req.Contacts {
		if c.PhoneNumber == nil || c.Name == nil || c.DeviceContactID == nil {
			s.writeFailure(w, r, badRequest("contacts[%d] is missing a field", i))
			return
		}
		contacts = append(contacts, backend.NewContact{
			PhoneNumber:     c.PhoneNumber,
			Name:            c.Name,
			DeviceContactID: c.DeviceContactID,
		})
	}

	_, err := s.backends.Contacts.CreateContacts(r.Context(), &backend.CreateContactsRequest{
		UserID:   backend.String(caller(r)),
		Contacts: contacts,
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.respond(w, r, empty{})
}
