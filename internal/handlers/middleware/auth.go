package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
	"github.com/nkiryanov/foodrhapsody/internal/handlers/userctx"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

type identity interface {
	// Has to return apperrors.ErrUserNotFound if token subject not exists
	// and apperrors.ErrUnauthorized if token is not valid
	AuthorizeAccess(ctx context.Context, r *http.Request) (models.User, error)
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// AuthMiddleware lets through requests with valid access token only and puts its user to request context
// Token of a user that not exists is unauthorized here, only GET /me reports it as not found
func AuthMiddleware(id identity, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := id.AuthorizeAccess(r.Context(), r)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrUnauthorized):
					render.Error(w, apperrors.ErrUnauthorized.Error(), http.StatusUnauthorized)
				default:
					l.Error("Authorization failed", "error", err)
					render.Error(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
