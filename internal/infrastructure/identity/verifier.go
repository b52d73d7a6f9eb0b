package identity

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failures are terminal for the connection attempt; callers must
// not retry. ErrMissingCredential and ErrInvalidCredential distinguish an
// absent token from one that fails verification (bad signature, expired,
// malformed, or missing subject).
var (
	ErrMissingCredential = errors.New("identity: missing credential")
	ErrInvalidCredential = errors.New("identity: invalid or expired credential")
)

// Verifier resolves opaque bearer credentials to stable user identifiers.
// Tokens are HMAC-signed JWTs issued by the external identity provider and
// are verified locally, so the hot path never makes a network round trip.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// NewVerifierFromEnv constructs a Verifier using the AUTH_JWT_SECRET env var.
func NewVerifierFromEnv() (*Verifier, error) {
	secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET"))
	if secret == "" {
		return nil, errors.New("identity: AUTH_JWT_SECRET environment variable is not set")
	}
	return NewVerifier(secret), nil
}

// Resolve verifies the credential and returns the user identifier carried in
// the token's subject claim.
func (v *Verifier) Resolve(credential string) (string, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return "", ErrMissingCredential
	}

	token, err := jwt.Parse(credential, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: no subject claim", ErrInvalidCredential)
	}
	return sub, nil
}
