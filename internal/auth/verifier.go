package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VerifierConfig holds configuration for token verification.
type VerifierConfig struct {
	// PublicKey takes precedence over PublicKeyPEM when set.
	PublicKey    *rsa.PublicKey
	PublicKeyPEM string

	// RequireExpiry rejects tokens without an exp claim. A present exp is
	// always validated.
	RequireExpiry bool

	// Leeway tolerates clock skew on exp, nbf and iat.
	Leeway time.Duration
}

// Claims holds the token fields the gateway uses.
type Claims struct {
	Subject   string
	ExpiresAt time.Time // Zero when the token carries no exp
}

// Verifier checks RS256 signatures against one preloaded public key.
// It is immutable and safe for concurrent use.
type Verifier struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewVerifier creates a new token verifier.
func NewVerifier(config VerifierConfig) (*Verifier, error) {
	key := config.PublicKey
	if key == nil {
		if strings.TrimSpace(config.PublicKeyPEM) == "" {
			return nil, fmt.Errorf("public key is required")
		}
		parsed, err := ParsePublicKey([]byte(config.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to load public key from PEM: %w", err)
		}
		key = parsed
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(config.Leeway),
	}
	if config.RequireExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	return &Verifier{
		publicKey: key,
		parser:    jwt.NewParser(opts...),
	}, nil
}

// VerifyToken verifies a token and returns its claims. Every failure wraps
// ErrInvalid.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalid)
	}

	registered := &jwt.RegisteredClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, registered, func(*jwt.Token) (interface{}, error) {
		return v.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: token not valid", ErrInvalid)
	}

	if registered.Subject == "" {
		return nil, fmt.Errorf("%w: missing 'sub' claim", ErrInvalid)
	}

	claims := &Claims{Subject: registered.Subject}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}

// LoadPublicKey reads a PEM encoded RSA public key from path.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return ParsePublicKey(data)
}

// ParsePublicKey parses a PEM block holding either a PKIX ("PUBLIC KEY") or
// a PKCS#1 ("RSA PUBLIC KEY") encoded RSA key.
func ParsePublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if block.Type == "RSA PUBLIC KEY" {
		key, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key: %w", err)
		}
		return key, nil
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}
