package auth

import (
	"net/http"

	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

// NewAuthenticator selects the request authenticator. An empty token
// disables authentication entirely.
func NewAuthenticator(token string) (Authenticator, error) {
	if token == "" {
		zap.S().Named("auth").Info("authentication: none")
		return NewNoneAuthenticator()
	}
	zap.S().Named("auth").Info("authentication: bearer token")
	return NewTokenAuthenticator(token)
}
