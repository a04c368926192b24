package challenge

import (
	"context"
	"fmt"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/ids"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
	"github.com/nkiryanov/foodrhapsody/internal/repository"
	"github.com/nkiryanov/foodrhapsody/internal/serial"
)

type ChallengeService struct {
	challengeRepo *repository.ChallengeRepo

	queue  *serial.Queue
	logger logger.Logger
}

func NewService(challengeRepo *repository.ChallengeRepo, l logger.Logger) *ChallengeService {
	l = l.With("service", repository.NamespaceChallenges)

	return &ChallengeService{
		challengeRepo: challengeRepo,
		queue:         serial.New(repository.NamespaceChallenges, l),
		logger:        l,
	}
}

func (s *ChallengeService) Run(ctx context.Context) <-chan struct{} {
	return s.queue.Run(ctx)
}

func (s *ChallengeService) Create(ctx context.Context, dto models.CreateChallenge) (models.Challenge, error) {
	id, err := ids.New()
	if err != nil {
		return models.Challenge{}, fmt.Errorf("can't generate challenge id. Err: %w", err)
	}

	c := models.Challenge{ID: id, Name: dto.Name, Stamps: dto.Stamps}
	if c.Stamps == nil {
		c.Stamps = []models.Stamp{}
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Challenge, error) {
		if err := s.challengeRepo.Save(ctx, c); err != nil {
			return models.Challenge{}, fmt.Errorf("db error: %w", err)
		}

		s.logger.Info("Challenge created", "challenge_id", c.ID)
		return c, nil
	})
}

// Update changes only fields present in dto
func (s *ChallengeService) Update(ctx context.Context, dto models.UpdateChallenge) (models.Challenge, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Challenge, error) {
		c, err := s.find(ctx, dto.ID)
		if err != nil {
			return models.Challenge{}, err
		}

		c.Apply(dto)

		if err := s.challengeRepo.Save(ctx, c); err != nil {
			return models.Challenge{}, fmt.Errorf("db error: %w", err)
		}
		return c, nil
	})
}

// List returns all challenges ordered by id, never nil
func (s *ChallengeService) List(ctx context.Context) ([]models.Challenge, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) ([]models.Challenge, error) {
		list, err := s.challengeRepo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if list == nil {
			list = []models.Challenge{}
		}
		return list, nil
	})
}

func (s *ChallengeService) Get(ctx context.Context, id string) (models.Challenge, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Challenge, error) {
		return s.find(ctx, id)
	})
}

func (s *ChallengeService) find(ctx context.Context, id string) (models.Challenge, error) {
	c, found, err := s.challengeRepo.FindByID(ctx, id)
	if err != nil {
		return models.Challenge{}, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return models.Challenge{}, apperrors.ErrChallengeNotFound
	}

	return c, nil
}
