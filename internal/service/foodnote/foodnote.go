package foodnote

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/ids"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
	"github.com/nkiryanov/foodrhapsody/internal/repository"
	"github.com/nkiryanov/foodrhapsody/internal/serial"
)

type FoodnoteService struct {
	foodnoteRepo *repository.FoodnoteRepo

	// Current time, replaced in tests
	now func() time.Time

	queue  *serial.Queue
	logger logger.Logger
}

func NewService(foodnoteRepo *repository.FoodnoteRepo, l logger.Logger) *FoodnoteService {
	l = l.With("service", repository.NamespaceFoodnotes)

	return &FoodnoteService{
		foodnoteRepo: foodnoteRepo,
		now:          time.Now,
		queue:        serial.New(repository.NamespaceFoodnotes, l),
		logger:       l,
	}
}

func (s *FoodnoteService) Run(ctx context.Context) <-chan struct{} {
	return s.queue.Run(ctx)
}

// Create stores foodnote of the author and appends it to author's list
func (s *FoodnoteService) Create(ctx context.Context, authorID string, dto models.CreateFoodnote) (models.Foodnote, error) {
	id, err := ids.New()
	if err != nil {
		return models.Foodnote{}, fmt.Errorf("can't generate foodnote id. Err: %w", err)
	}

	note := models.Foodnote{
		ID:        id,
		StampID:   dto.StampID,
		AuthorID:  authorID,
		Text:      dto.Text,
		Place:     dto.Place,
		Timestamp: s.now().Unix(),
		ImgURLs:   dto.ImgURLs,
		IsPublic:  dto.IsPublic,
	}
	if note.ImgURLs == nil {
		note.ImgURLs = []string{}
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Foodnote, error) {
		if err := s.foodnoteRepo.Save(ctx, note); err != nil {
			return models.Foodnote{}, fmt.Errorf("db error: %w", err)
		}

		noteIDs, err := s.foodnoteRepo.AuthorIDs(ctx, authorID)
		if err != nil {
			return models.Foodnote{}, fmt.Errorf("db error: %w", err)
		}
		if err := s.foodnoteRepo.SetAuthorIDs(ctx, authorID, append(noteIDs, note.ID)); err != nil {
			return models.Foodnote{}, fmt.Errorf("db error: %w", err)
		}

		s.logger.Debug("Foodnote created", "foodnote_id", note.ID, "author_id", authorID)
		return note, nil
	})
}

// ListForAuthor returns author's foodnotes in creation order, never nil
func (s *FoodnoteService) ListForAuthor(ctx context.Context, authorID string) ([]models.Foodnote, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) ([]models.Foodnote, error) {
		noteIDs, err := s.foodnoteRepo.AuthorIDs(ctx, authorID)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		notes, err := s.foodnoteRepo.ListByIDs(ctx, noteIDs)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if notes == nil {
			notes = []models.Foodnote{}
		}
		return notes, nil
	})
}

// Get returns foodnote visible to the user: own one or public
// Foodnote hidden from the user is reported as not found
func (s *FoodnoteService) Get(ctx context.Context, userID string, id string) (models.Foodnote, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Foodnote, error) {
		note, found, err := s.foodnoteRepo.FindByID(ctx, id)
		switch {
		case err != nil:
			return models.Foodnote{}, fmt.Errorf("db error: %w", err)
		case !found, !note.VisibleTo(userID):
			return models.Foodnote{}, apperrors.ErrFoodnoteNotFound
		}
		return note, nil
	})
}
