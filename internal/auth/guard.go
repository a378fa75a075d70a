package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Authentication failures of the required form.
var (
	ErrMissing   = errors.New("AUTH_MISSING")
	ErrMalformed = errors.New("AUTH_MALFORMED")
	ErrInvalid   = errors.New("AUTH_INVALID")
)

// TokenVerifier verifies a bearer token. *Verifier implements it.
type TokenVerifier interface {
	VerifyToken(token string) (*Claims, error)
}

var _ TokenVerifier = (*Verifier)(nil)

// Principal is the outcome of optional authentication.
type Principal struct {
	userID string
	ok     bool
}

// Authenticated returns a principal for a verified caller.
func Authenticated(userID string) Principal {
	return Principal{userID: userID, ok: true}
}

// Anonymous returns the principal of a caller without valid credentials.
func Anonymous() Principal {
	return Principal{}
}

// UserID returns the caller's id and whether the caller is authenticated.
func (p Principal) UserID() (string, bool) {
	return p.userID, p.ok
}

func (p Principal) IsAuthenticated() bool {
	return p.ok
}

func (p Principal) String() string {
	if !p.ok {
		return "anonymous"
	}
	return p.userID
}

// Guard authenticates requests from the Authorization header.
type Guard struct {
	verifier TokenVerifier
	log      logrus.FieldLogger
}

// NewGuard creates a guard. A nil logger falls back to the standard one.
func NewGuard(verifier TokenVerifier, log logrus.FieldLogger) *Guard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Guard{verifier: verifier, log: log}
}

// Authenticate is the required form. It returns the verified subject.
func (g *Guard) Authenticate(r *http.Request) (string, error) {
	token, err := bearerToken(r)
	if err != nil {
		return "", err
	}

	claims, err := g.verifier.VerifyToken(token)
	if err != nil {
		if !errors.Is(err, ErrInvalid) {
			err = fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return "", err
	}

	return claims.Subject, nil
}

// Identify is the optional form. Failure detail is logged and discarded.
func (g *Guard) Identify(r *http.Request) Principal {
	userID, err := g.Authenticate(r)
	if err != nil {
		if !errors.Is(err, ErrMissing) {
			g.log.WithError(err).Debug("optional authentication failed, continuing anonymously")
		}
		return Anonymous()
	}
	return Authenticated(userID)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissing
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrMalformed)
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", fmt.Errorf("%w: bearer token is empty or contains whitespace", ErrMalformed)
	}

	return token, nil
}
