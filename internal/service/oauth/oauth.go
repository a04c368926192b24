package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/foodrhapsody/internal/apperrors"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
)

// Provider is one of the supported external identity providers
type Provider string

const (
	ProviderKakao Provider = "kakao"
)

const (
	DefaultKakaoUserURL   = "https://kapi.kakao.com/v2/user/me"
	defaultRequestTimeout = 5 * time.Second
)

// ParseProvider matches provider name exactly, "KAKAO" is not "kakao"
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(name); p {
	case ProviderKakao:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidOAuthProvider, name)
	}
}

type Config struct {
	// Kakao user info endpoint. Default is used if empty
	KakaoUserURL string

	// Timeout for a single provider request. Default is used if zero
	Timeout time.Duration
}

// Verifier checks that an externally issued token belongs to the claimed email
type Verifier struct {
	kakaoUserURL string
	timeout      time.Duration

	client *http.Client
	logger logger.Logger
}

func NewVerifier(cfg Config, client *http.Client, l logger.Logger) *Verifier {
	if cfg.KakaoUserURL == "" {
		cfg.KakaoUserURL = DefaultKakaoUserURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	if client == nil {
		client = &http.Client{}
	}

	return &Verifier{
		kakaoUserURL: cfg.KakaoUserURL,
		timeout:      cfg.Timeout,
		client:       client,
		logger:       l.With("component", "oauth"),
	}
}

// VerifyIdentity asks the provider who owns the token and compares its email with the claimed one
// Fails with apperrors.ErrInvalidOAuthProvider, ErrInvalidOAuthToken or ErrOAuthEmailMismatch
func (v *Verifier) VerifyIdentity(ctx context.Context, providerName string, token string, email string) error {
	provider, err := ParseProvider(providerName)
	if err != nil {
		return err
	}

	var providerEmail string
	switch provider {
	case ProviderKakao:
		providerEmail, err = v.kakaoEmail(ctx, token)
	}
	if err != nil {
		return err
	}

	if providerEmail == "" || providerEmail != email {
		v.logger.Info("OAuth email mismatch", "provider", provider)
		return apperrors.ErrOAuthEmailMismatch
	}

	return nil
}

type kakaoUser struct {
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

func (v *Verifier) kakaoEmail(ctx context.Context, token string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.kakaoUserURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.Warn("Kakao request failed", "error", err)
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidOAuthToken, err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		v.logger.Info("Kakao rejected token", "status_code", resp.StatusCode)
		return "", fmt.Errorf("%w: kakao status code %d", apperrors.ErrInvalidOAuthToken, resp.StatusCode)
	}

	var u kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		v.logger.Warn("Failed to decode kakao response", "error", err)
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidOAuthToken, err)
	}

	return u.KakaoAccount.Email, nil
}
