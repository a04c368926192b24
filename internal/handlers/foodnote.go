package handlers

import (
	"context"
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
	"github.com/nkiryanov/foodrhapsody/internal/handlers/userctx"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

type foodnoteService interface {
	Create(ctx context.Context, authorID string, dto models.CreateFoodnote) (models.Foodnote, error)
	ListForAuthor(ctx context.Context, authorID string) ([]models.Foodnote, error)

	// Has to return apperrors.ErrFoodnoteNotFound if foodnote not exists or hidden from user
	Get(ctx context.Context, userID string, id string) (models.Foodnote, error)
}

// Foodnote handlers expect user in context, so have to be wrapped with auth middleware

func handleListFoodnotes(foodnoteService foodnoteService, l logger.Logger) http.Handler {
	type response struct {
		Foodnotes []models.Foodnote `json:"foodnotes"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		notes, err := foodnoteService.ListForAuthor(r.Context(), user.ID)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, response{Foodnotes: notes})
	})
}

func handleCreateFoodnote(foodnoteService foodnoteService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		dto, err := render.BindAndValidate[models.CreateFoodnote](w, r)
		if err != nil {
			return
		}

		note, err := foodnoteService.Create(r.Context(), user.ID, dto)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, note)
	})
}

func handleGetFoodnote(foodnoteService foodnoteService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _ := userctx.FromContext(r.Context())

		note, err := foodnoteService.Get(r.Context(), user.ID, r.PathValue("id"))
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, note)
	})
}
