package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

type userService interface {
	// Login with OAuth token. Unknown email creates a new user.
	CreateOrRefresh(ctx context.Context, dto models.CreateUser) (models.Session, error)

	// Exchange refresh token from request for a new session
	RotateTokens(ctx context.Context, r *http.Request) (models.Session, error)

	// Has to return apperrors.ErrUserNotFound if token subject not exists
	AuthorizeAccess(ctx context.Context, r *http.Request) (models.User, error)

	// Has to return apperrors.ErrUnauthorized for a valid user that is not an admin
	AuthorizeAdmin(ctx context.Context, r *http.Request) (models.User, error)
}

type meResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func handleCreateUser(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dto, err := render.BindAndValidate[models.CreateUser](w, r)
		if err != nil {
			return
		}

		session, err := userService.CreateOrRefresh(r.Context(), dto)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, session)
	})
}

func handleRotateTokens(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := userService.RotateTokens(r.Context(), r)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, session)
	})
}

// handleMe authorizes by itself: token of a removed user is 404 here, not 401
func handleMe(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userService.AuthorizeAccess(r.Context(), r)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, meResponse{ID: user.ID, Email: user.Email})
	})
}

func handleMeAdmin(userService userService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userService.AuthorizeAdmin(r.Context(), r)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, meResponse{ID: user.ID, Email: user.Email})
	})
}
