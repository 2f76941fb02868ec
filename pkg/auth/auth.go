// Package auth is the credential-checking capability the API consumes. The
// ledger does not manage identities or sessions; it only needs a yes/no answer
// for a presented bearer token, checked once at the request boundary.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned for a missing, malformed, or unknown credential.
var ErrUnauthorized = errors.New("auth: not authorized")

// Authenticator validates a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) error
}

// TokenAuthenticator accepts a single static bearer token, the usual setup for
// a service fronted by a gateway that terminates real authentication.
type TokenAuthenticator struct {
	token string
}

var _ Authenticator = (*TokenAuthenticator)(nil)

// NewTokenAuthenticator creates an authenticator for the given token. An empty
// token gets a generated one; retrieve it with Token for logging at startup.
func NewTokenAuthenticator(token string) *TokenAuthenticator {
	if token == "" {
		token = uuid.NewString()
	}
	return &TokenAuthenticator{token: token}
}

// Token returns the accepted token.
func (a *TokenAuthenticator) Token() string {
	return a.token
}

func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}
