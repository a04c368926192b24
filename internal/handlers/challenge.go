package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/foodrhapsody/internal/handlers/render"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

const challengesMaxAge = time.Minute

type challengeService interface {
	Create(ctx context.Context, dto models.CreateChallenge) (models.Challenge, error)

	// Has to return apperrors.ErrChallengeNotFound if challenge not exists
	Update(ctx context.Context, dto models.UpdateChallenge) (models.Challenge, error)

	List(ctx context.Context) ([]models.Challenge, error)
}

func handleListChallenges(challengeService challengeService, l logger.Logger) http.Handler {
	type response struct {
		Challenges []models.Challenge `json:"challenges"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		challenges, err := challengeService.List(r.Context())
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSONWithCache(w, response{Challenges: challenges}, challengesMaxAge)
	})
}

func handleCreateChallenge(challengeService challengeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dto, err := render.BindAndValidate[models.CreateChallenge](w, r)
		if err != nil {
			return
		}

		challenge, err := challengeService.Create(r.Context(), dto)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, challenge)
	})
}

func handleUpdateChallenge(challengeService challengeService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dto, err := render.BindAndValidate[models.UpdateChallenge](w, r)
		if err != nil {
			return
		}

		challenge, err := challengeService.Update(r.Context(), dto)
		if err != nil {
			renderError(w, err, l)
			return
		}

		render.JSON(w, challenge)
	})
}
