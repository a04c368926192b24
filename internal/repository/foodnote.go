package repository

import (
	"context"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

const authorPrefix = "author_"

type FoodnoteRepo struct {
	ns *kvstore.Namespace
}

func (r *FoodnoteRepo) FindByID(ctx context.Context, id string) (models.Foodnote, bool, error) {
	return kvstore.Find[models.Foodnote](ctx, r.ns, idKey(id))
}

func (r *FoodnoteRepo) Save(ctx context.Context, f models.Foodnote) error {
	return kvstore.Put(ctx, r.ns, idKey(f.ID), f)
}

// AuthorIDs returns ids of author's foodnotes in creation order, empty if author has none
func (r *FoodnoteRepo) AuthorIDs(ctx context.Context, authorID string) ([]string, error) {
	ids, _, err := kvstore.Find[[]string](ctx, r.ns, authorPrefix+authorID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

func (r *FoodnoteRepo) SetAuthorIDs(ctx context.Context, authorID string, ids []string) error {
	return kvstore.Put(ctx, r.ns, authorPrefix+authorID, ids)
}

// ListByIDs returns foodnotes in the order of ids, missing ones skipped
func (r *FoodnoteRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Foodnote, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, idKey(id))
	}

	return kvstore.GetMultiple[models.Foodnote](ctx, r.ns, keys)
}
