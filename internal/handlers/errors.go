package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
)

// renderError maps service errors to status code and public message
// Unknown errors are logged and rendered as 500 without details
func renderError(w http.ResponseWriter, err error, l logger.Logger) {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.Error(w, apperrors.ErrUserNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrChallengeNotFound):
		render.Error(w, apperrors.ErrChallengeNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrFoodnoteNotFound):
		render.Error(w, apperrors.ErrFoodnoteNotFound.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserEmailDuplicated):
		render.Error(w, apperrors.ErrUserEmailDuplicated.Error(), http.StatusNotAcceptable)
	case errors.Is(err, apperrors.ErrOAuthEmailMismatch):
		render.Error(w, apperrors.ErrOAuthEmailMismatch.Error(), http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrTokenMalformed),
		errors.Is(err, apperrors.ErrTokenBadSignature),
		errors.Is(err, apperrors.ErrTokenExpired):
		render.Error(w, apperrors.ErrUnauthorized.Error(), http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidOAuthProvider):
		render.Error(w, apperrors.ErrInvalidOAuthProvider.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrInvalidOAuthToken):
		render.Error(w, apperrors.ErrInvalidOAuthToken.Error(), http.StatusBadRequest)
	default:
		l.Error("Request failed", "error", err)
		render.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
