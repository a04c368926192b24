package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound        = errors.New("user not exists")
	ErrUserEmailDuplicated = errors.New("user email duplicated")

	ErrUnauthorized = errors.New("unauthorized")

	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenBadSignature = errors.New("token signature invalid")
	ErrTokenExpired      = errors.New("token expired")

	ErrInvalidOAuthProvider = errors.New("invalid oauth provider")
	ErrInvalidOAuthToken    = errors.New("invalid oauth token")
	ErrOAuthEmailMismatch   = errors.New("oauth email mismatch")

	ErrChallengeNotFound = errors.New("challenge not exists")

	ErrFoodnoteNotFound = errors.New("foodnote not exists")
)
