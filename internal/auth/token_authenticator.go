package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuthenticator accepts requests carrying a matching static bearer
// token in the Authorization header.
type TokenAuthenticator struct {
	token string
}

func NewTokenAuthenticator(token string) (*TokenAuthenticator, error) {
	return &TokenAuthenticator{token: token}, nil
}

func (a *TokenAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented, ok := parseBearer(r.Header.Get("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) != 1 {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}
