package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bzd-chat/gateway/internal/aggregate"
	"github.com/bzd-chat/gateway/internal/auth"
	"github.com/bzd-chat/gateway/internal/backend"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, empty{})
}

type joinRequest struct {
	PhoneNumber *string `json:"phone_number"`
}

type joinResponse struct {
	Verification verificationView `json:"verification"`
}

type verificationView struct {
	VerificationID string `json:"verification_id"`
}

// handleJoin starts phone verification. The phone number arrives as a
// decimal string and is sent to the backend as an integer.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	phone, err := required(req.PhoneNumber, "phone_number")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	number, err := strconv.ParseInt(strings.TrimSpace(phone), 10, 64)
	if err != nil {
		s.writeFailure(w, r, badRequest("phone_number is not an integer: %v", err))
		return
	}

	res, err := s.backends.Auth.Join(r.Context(), &backend.JoinRequest{PhoneNumber: backend.Int64(number)})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	verification, err := backend.Require(res.Verification, backend.AuthJoin, "verification")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	id, err := backend.Require(verification.VerificationID, backend.AuthJoin, "verification.verification_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, joinResponse{Verification: verificationView{VerificationID: id}})
}

type completeRequest struct {
	VerificationID *string `json:"verification_id"`
	Code           *string `json:"code"`
}

type completeResponse struct {
	JWT string `json:"jwt"`
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	verificationID, err := required(req.VerificationID, "verification_id")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	code, err := required(req.Code, "code")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.backends.Auth.Complete(r.Context(), &backend.CompleteRequest{
		VerificationID: backend.String(verificationID),
		Code:           backend.String(code),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	token, err := backend.Require(res.JWT, backend.AuthComplete, "jwt")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, completeResponse{JWT: token})
}

type meResponse struct {
	User *aggregate.Profile `json:"user"`
}

// handleMe describes the current session. Anonymous callers get a null
// user rather than a failure.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		s.respond(w, r, meResponse{})
		return
	}

	res, err := s.backends.Users.GetUser(r.Context(), &backend.GetUserRequest{UserID: backend.String(userID)})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	user, err := backend.Require(res.User, backend.UsersGetUser, "user")
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	profile, err := aggregate.ProfileOf(user, backend.UsersGetUser)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	s.respond(w, r, meResponse{User: &profile})
}
