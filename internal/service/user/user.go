// Package user owns user records and the token lifecycle.
//
// Each user keeps exactly one live access token and one live refresh token.
// Issuing a token overwrites the stored one, which revokes every token issued before.
package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/ids"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/models"
	"github.com/nkiryanov/foodrhapsody/internal/repository"
	"github.com/nkiryanov/foodrhapsody/internal/serial"
	"github.com/nkiryanov/foodrhapsody/internal/service/auth"
	"github.com/nkiryanov/foodrhapsody/internal/service/auth/tokenmanager"
)

var DefaultAdminEmails = []string{"seokju.me@kakao.com"}

type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, provider string, token string, email string) error
}

type UserService struct {
	tokens   *tokenmanager.TokenManager
	verifier IdentityVerifier
	userRepo *repository.UserRepo

	admins map[string]struct{}

	queue  *serial.Queue
	logger logger.Logger
}

// NewService creates service. If adminEmails is empty DefaultAdminEmails is used.
// Run has to be called before the service accepts operations.
func NewService(
	tokens *tokenmanager.TokenManager,
	verifier IdentityVerifier,
	userRepo *repository.UserRepo,
	adminEmails []string,
	l logger.Logger,
) *UserService {
	if len(adminEmails) == 0 {
		adminEmails = DefaultAdminEmails
	}

	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[email] = struct{}{}
	}

	l = l.With("service", repository.NamespaceUsers)

	return &UserService{
		tokens:   tokens,
		verifier: verifier,
		userRepo: userRepo,
		admins:   admins,
		queue:    serial.New(repository.NamespaceUsers, l),
		logger:   l,
	}
}

// Run starts serving operations until ctx is done
func (s *UserService) Run(ctx context.Context) <-chan struct{} {
	return s.queue.Run(ctx)
}

func (s *UserService) ResolveByID(ctx context.Context, id string) (models.User, bool, error) {
	return s.resolve(ctx, func(ctx context.Context) (models.User, bool, error) {
		return s.userRepo.FindByID(ctx, id)
	})
}

func (s *UserService) ResolveByEmail(ctx context.Context, email string) (models.User, bool, error) {
	return s.resolve(ctx, func(ctx context.Context) (models.User, bool, error) {
		return s.userRepo.FindByEmail(ctx, email)
	})
}

func (s *UserService) ResolveByRefreshID(ctx context.Context, refreshID string) (models.User, bool, error) {
	return s.resolve(ctx, func(ctx context.Context) (models.User, bool, error) {
		return s.userRepo.FindByRefreshID(ctx, refreshID)
	})
}

type resolved struct {
	user  models.User
	found bool
}

func (s *UserService) resolve(ctx context.Context, find func(ctx context.Context) (models.User, bool, error)) (models.User, bool, error) {
	r, err := serial.Call(ctx, s.queue, func(ctx context.Context) (resolved, error) {
		u, found, err := find(ctx)
		if err != nil {
			return resolved{}, fmt.Errorf("db error: %w", err)
		}
		return resolved{user: u, found: found}, nil
	})

	return r.user, r.found, err
}

// CreateOrRefresh logs user in with OAuth token
// New user is created for unknown email, the known one gets both tokens rotated
func (s *UserService) CreateOrRefresh(ctx context.Context, dto models.CreateUser) (models.Session, error) {
	// Provider round trip happens outside the queue
	if err := s.verifier.VerifyIdentity(ctx, dto.OAuthProvider, dto.OAuthToken, dto.Email); err != nil {
		return models.Session{}, err
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Session, error) {
		user, found, err := s.userRepo.FindByEmail(ctx, dto.Email)
		if err != nil {
			return models.Session{}, fmt.Errorf("db error: %w", err)
		}

		if !found {
			user, err = s.createUser(ctx, dto)
			if err != nil {
				return models.Session{}, err
			}
			s.logger.Info("User created", "user_id", user.ID)
		}

		return s.issueSession(ctx, user)
	})
}

func (s *UserService) createUser(ctx context.Context, dto models.CreateUser) (models.User, error) {
	id, err := ids.New()
	if err != nil {
		return models.User{}, fmt.Errorf("can't generate user id. Err: %w", err)
	}

	user := models.User{
		ID:            id,
		Email:         dto.Email,
		Name:          dto.Name,
		OAuthProvider: dto.OAuthProvider,
	}

	// Record before index: an index must never point to a missing user
	if err := s.userRepo.Save(ctx, user); err != nil {
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	if err := s.userRepo.LinkEmail(ctx, user.Email, user.ID); err != nil {
		if errors.Is(err, apperrors.ErrUserEmailDuplicated) {
			return models.User{}, err
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// IssueAccessToken replaces user's access token with a fresh one
func (s *UserService) IssueAccessToken(ctx context.Context, user models.User) (string, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) (string, error) {
		stored, err := s.reload(ctx, user.ID)
		if err != nil {
			return "", err
		}
		if err := s.setAccessToken(&stored); err != nil {
			return "", err
		}
		if err := s.userRepo.Save(ctx, stored); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		return stored.AccessToken, nil
	})
}

// IssueRefreshToken replaces user's refresh token with a fresh one bound to a new refresh id
func (s *UserService) IssueRefreshToken(ctx context.Context, user models.User) (string, error) {
	return serial.Call(ctx, s.queue, func(ctx context.Context) (string, error) {
		stored, err := s.reload(ctx, user.ID)
		if err != nil {
			return "", err
		}
		if err := s.setRefreshToken(ctx, &stored); err != nil {
			return "", err
		}
		if err := s.userRepo.Save(ctx, stored); err != nil {
			return "", fmt.Errorf("db error: %w", err)
		}
		return stored.RefreshToken, nil
	})
}

// RotateTokens exchanges valid refresh token from request for a new token pair
func (s *UserService) RotateTokens(ctx context.Context, r *http.Request) (models.Session, error) {
	token, claims, err := s.parseRequest(r, s.tokens.ParseRefresh)
	if err != nil {
		return models.Session{}, err
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.Session, error) {
		user, err := s.bindRefresh(ctx, token, claims)
		if err != nil {
			return models.Session{}, err
		}
		return s.issueSession(ctx, user)
	})
}

// AuthorizeAccess returns the user the access token from request belongs to
// Fails with apperrors.ErrUserNotFound if token subject does not exist, apperrors.ErrUnauthorized otherwise
func (s *UserService) AuthorizeAccess(ctx context.Context, r *http.Request) (models.User, error) {
	token, claims, err := s.parseRequest(r, s.tokens.ParseAccess)
	if err != nil {
		return models.User{}, err
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.User, error) {
		user, found, err := s.userRepo.FindByID(ctx, claims.Subject)
		switch {
		case err != nil:
			return models.User{}, fmt.Errorf("db error: %w", err)
		case !found:
			return models.User{}, apperrors.ErrUserNotFound
		case !tokenMatches(user.AccessToken, token):
			return models.User{}, fmt.Errorf("%w: access token revoked", apperrors.ErrUnauthorized)
		}
		return user, nil
	})
}

// AuthorizeRefresh returns the user the refresh token from request belongs to
func (s *UserService) AuthorizeRefresh(ctx context.Context, r *http.Request) (models.User, error) {
	token, claims, err := s.parseRequest(r, s.tokens.ParseRefresh)
	if err != nil {
		return models.User{}, err
	}

	return serial.Call(ctx, s.queue, func(ctx context.Context) (models.User, error) {
		return s.bindRefresh(ctx, token, claims)
	})
}

// AuthorizeAdmin is AuthorizeAccess for users from admin allow-list only
func (s *UserService) AuthorizeAdmin(ctx context.Context, r *http.Request) (models.User, error) {
	user, err := s.AuthorizeAccess(ctx, r)
	if err != nil {
		return models.User{}, err
	}
	if !s.IsAdmin(user) {
		return models.User{}, fmt.Errorf("%w: not an admin", apperrors.ErrUnauthorized)
	}

	return user, nil
}

func (s *UserService) IsAdmin(user models.User) bool {
	_, ok := s.admins[user.Email]
	return ok
}

func (s *UserService) parseRequest(r *http.Request, parse func(string) (models.Claims, error)) (string, models.Claims, error) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		return "", models.Claims{}, err
	}

	claims, err := parse(token)
	if err != nil {
		return "", models.Claims{}, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	return token, claims, nil
}

func (s *UserService) bindRefresh(ctx context.Context, token string, claims models.Claims) (models.User, error) {
	user, found, err := s.userRepo.FindByRefreshID(ctx, claims.Subject)
	switch {
	case err != nil:
		return models.User{}, fmt.Errorf("db error: %w", err)
	case !found:
		return models.User{}, fmt.Errorf("%w: unknown refresh id", apperrors.ErrUnauthorized)
	case !tokenMatches(user.RefreshToken, token):
		return models.User{}, fmt.Errorf("%w: refresh token revoked", apperrors.ErrUnauthorized)
	}

	return user, nil
}

func (s *UserService) reload(ctx context.Context, userID string) (models.User, error) {
	user, found, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
	if !found {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

// issueSession rotates both tokens and persists the user once
func (s *UserService) issueSession(ctx context.Context, user models.User) (models.Session, error) {
	if err := s.setAccessToken(&user); err != nil {
		return models.Session{}, err
	}
	if err := s.setRefreshToken(ctx, &user); err != nil {
		return models.Session{}, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return models.Session{}, fmt.Errorf("db error: %w", err)
	}

	s.logger.Debug("Tokens issued", "user_id", user.ID)

	return models.Session{
		UserID:       user.ID,
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
	}, nil
}

func (s *UserService) setAccessToken(user *models.User) error {
	issued, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return err
	}

	user.AccessToken = issued.Value
	return nil
}

func (s *UserService) setRefreshToken(ctx context.Context, user *models.User) error {
	refreshID, err := ids.New()
	if err != nil {
		return fmt.Errorf("can't generate refresh id. Err: %w", err)
	}

	issued, err := s.tokens.IssueRefresh(refreshID)
	if err != nil {
		return err
	}

	if err := s.userRepo.LinkRefreshID(ctx, refreshID, user.ID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	user.RefreshToken = issued.Value
	return nil
}

func tokenMatches(stored string, presented string) bool {
	return stored != "" && stored == presented
}
