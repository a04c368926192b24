package auth

import (
	"net/http"
	"strings"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
)

const (
	HeaderName = "Authorization"
	Scheme     = "Bearer"
)

// BearerToken extracts token from header value in form "Bearer <token>"
// Any other shape is apperrors.ErrUnauthorized
func BearerToken(header string) (string, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != Scheme || parts[1] == "" {
		return "", apperrors.ErrUnauthorized
	}

	return parts[1], nil
}

func TokenFromRequest(r *http.Request) (string, error) {
	return BearerToken(r.Header.Get(HeaderName))
}
