package repository

import (
	"context"
	"errors"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

const (
	emailPrefix     = "email_"
	refreshIDPrefix = "refresh_"
)

type UserRepo struct {
	ns *kvstore.Namespace
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (models.User, bool, error) {
	return kvstore.Find[models.User](ctx, r.ns, idKey(id))
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return r.findByIndex(ctx, emailPrefix+email)
}

func (r *UserRepo) FindByRefreshID(ctx context.Context, refreshID string) (models.User, bool, error) {
	return r.findByIndex(ctx, refreshIDPrefix+refreshID)
}

// Save overwrites user record
func (r *UserRepo) Save(ctx context.Context, u models.User) error {
	return kvstore.Put(ctx, r.ns, idKey(u.ID), u)
}

// LinkEmail creates email index entry once
// If email already linked has to return apperrors.ErrUserEmailDuplicated
func (r *UserRepo) LinkEmail(ctx context.Context, email string, userID string) error {
	err := kvstore.Insert(ctx, r.ns, emailPrefix+email, userID)
	if errors.Is(err, kvstore.ErrKeyExists) {
		return apperrors.ErrUserEmailDuplicated
	}

	return err
}

// LinkRefreshID maps freshly issued refresh id to user. Old entries are kept.
func (r *UserRepo) LinkRefreshID(ctx context.Context, refreshID string, userID string) error {
	return kvstore.Put(ctx, r.ns, refreshIDPrefix+refreshID, userID)
}

func (r *UserRepo) findByIndex(ctx context.Context, key string) (models.User, bool, error) {
	userID, found, err := kvstore.Find[string](ctx, r.ns, key)
	if err != nil || !found {
		return models.User{}, false, err
	}

	return r.FindByID(ctx, userID)
}
