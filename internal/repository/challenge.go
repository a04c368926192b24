package repository

import (
	"context"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

type ChallengeRepo struct {
	ns *kvstore.Namespace
}

func (r *ChallengeRepo) FindByID(ctx context.Context, id string) (models.Challenge, bool, error) {
	return kvstore.Find[models.Challenge](ctx, r.ns, idKey(id))
}

// List returns all challenges ordered by id
func (r *ChallengeRepo) List(ctx context.Context) ([]models.Challenge, error) {
	return kvstore.ListByPrefix[models.Challenge](ctx, r.ns, idPrefix)
}

func (r *ChallengeRepo) Save(ctx context.Context, c models.Challenge) error {
	return kvstore.Put(ctx, r.ns, idKey(c.ID), c)
}
