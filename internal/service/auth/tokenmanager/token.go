package tokenmanager

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/models"
)

const (
	DefaultAccessTokenTTL  = 3 * time.Hour
	DefaultRefreshTokenTTL = 4 * 7 * 24 * time.Hour
	defaultSigningMethod   = "HS256"

	derivedSecretLen = 32
)

// Token manager with sensible default
type Config struct {
	// Secrets to sign access and refresh tokens. Must differ.
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing method %q is not HMAC based", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, DefaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, DefaultRefreshTokenTTL)

	return &TokenManager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		alg:           alg,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// IssueAccess signs access token where subject is the user id
func (m *TokenManager) IssueAccess(userID string) (models.IssuedToken, error) {
	return m.issue(userID, m.accessTTL, m.accessSecret)
}

// IssueRefresh signs refresh token where subject is the refresh id
func (m *TokenManager) IssueRefresh(refreshID string) (models.IssuedToken, error) {
	return m.issue(refreshID, m.refreshTTL, m.refreshSecret)
}

func (m *TokenManager) ParseAccess(token string) (models.Claims, error) {
	return verify(token, m.accessSecret, m.alg)
}

func (m *TokenManager) ParseRefresh(token string) (models.Claims, error) {
	return verify(token, m.refreshSecret, m.alg)
}

func (m *TokenManager) issue(subject string, ttl time.Duration, secret []byte) (models.IssuedToken, error) {
	claims := CreateClaims(subject, ttl)

	value, err := sign(claims, secret, m.alg)
	if err != nil {
		return models.IssuedToken{}, err
	}

	return models.IssuedToken{Value: value, ExpiresAt: claims.ExpiresAt}, nil
}

// CreateClaims stamps claims with iat and exp truncated to seconds, the precision tokens keep
func CreateClaims(subject string, ttl time.Duration) models.Claims {
	now := time.Now().Truncate(time.Second)

	return models.Claims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl).Truncate(time.Second),
	}
}

// Sign claims with HS256
func Sign(claims models.Claims, secret []byte) (string, error) {
	return sign(claims, secret, jwt.SigningMethodHS256)
}

// Verify HS256 token. Fails with one of apperrors.ErrTokenMalformed, ErrTokenBadSignature, ErrTokenExpired
func Verify(token string, secret []byte) (models.Claims, error) {
	return verify(token, secret, jwt.SigningMethodHS256)
}

func sign(claims models.Claims, secret []byte, alg jwt.SigningMethod) (string, error) {
	token := jwt.NewWithClaims(alg, jwt.RegisteredClaims{
		ID:        claims.ID,
		Subject:   claims.Subject,
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("error while signing token. Err: %w", err)
	}

	return signed, nil
}

func verify(token string, secret []byte, alg jwt.SigningMethod) (models.Claims, error) {
	rc := &jwt.RegisteredClaims{}

	// Expiry checked below: jwt validator treats exp == now as expired and that breaks zero ttl tokens
	_, err := jwt.ParseWithClaims(
		token,
		rc,
		func(t *jwt.Token) (any, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenBadSignature, err)
	default:
		return models.Claims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}

	if rc.ExpiresAt == nil || rc.IssuedAt == nil {
		return models.Claims{}, fmt.Errorf("%w: iat and exp are required", apperrors.ErrTokenMalformed)
	}

	claims := models.Claims{
		ID:        rc.ID,
		Subject:   rc.Subject,
		IssuedAt:  rc.IssuedAt.Time,
		ExpiresAt: rc.ExpiresAt.Time,
	}

	if time.Now().Truncate(time.Second).After(claims.ExpiresAt) {
		return claims, apperrors.ErrTokenExpired
	}

	return claims, nil
}

// DeriveSecrets expands one master secret into independent access and refresh secrets (HKDF-SHA256)
func DeriveSecrets(master string) (access string, refresh string, err error) {
	if master == "" {
		return "", "", errors.New("master secret must not be empty")
	}

	derive := func(info string) (string, error) {
		b := make([]byte, derivedSecretLen)
		if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(master), nil, []byte(info)), b); err != nil {
			return "", fmt.Errorf("error while deriving %s secret. Err: %w", info, err)
		}
		return string(b), nil
	}

	if access, err = derive("access-token"); err != nil {
		return "", "", err
	}
	if refresh, err = derive("refresh-token"); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}
