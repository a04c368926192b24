package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/foodrhapsody/internal/kvstore"
	"github.com/nkiryanov/foodrhapsody/internal/logger"
	"github.com/nkiryanov/foodrhapsody/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/foodrhapsody/internal/service/oauth"
	"github.com/nkiryanov/foodrhapsody/internal/service/user"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Storage to connect to: postgres://... or sqlite://<dsn>
	DatabaseDSN string

	// Master secret. Access and refresh secrets not set explicitly are derived from it
	SecretKey string

	// Secrets to sign access and refresh tokens
	AccessSecret  string
	RefreshSecret string

	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Kakao user info endpoint used to verify oauth tokens
	KakaoUserURL string

	// Users with these emails are admins
	AdminEmails []string

	// Storage value codec: json or cbor
	Codec string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		AccessTTL:    tokenmanager.DefaultAccessTokenTTL,
		RefreshTTL:   tokenmanager.DefaultRefreshTokenTTL,
		KakaoUserURL: oauth.DefaultKakaoUserURL,
		AdminEmails:  user.DefaultAdminEmails,
		Codec:        kvstore.JSON.Name(),
		Environment:  defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = splitList(value)
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":        setString(&c.ListenAddr),
		"DATABASE_URI":       setString(&c.DatabaseDSN),
		"SECRET_KEY":         setString(&c.SecretKey),
		"ACCESS_SECRET_KEY":  setString(&c.AccessSecret),
		"REFRESH_SECRET_KEY": setString(&c.RefreshSecret),
		"ACCESS_TOKEN_TTL":   setDuration(&c.AccessTTL),
		"REFRESH_TOKEN_TTL":  setDuration(&c.RefreshTTL),
		"KAKAO_USER_URL":     setString(&c.KakaoUserURL),
		"ADMIN_EMAILS":       setList(&c.AdminEmails),
		"STORAGE_CODEC":      setString(&c.Codec),
		"LOG_LEVEL":          setString(&c.LogLevel),
		"ENVIRONMENT":        setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("foodrhapsody", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string (postgres://... or sqlite://...)")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Master secret key")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Access token secret")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Refresh token secret")
	fs.DurationVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime")
	fs.StringVar(&c.KakaoUserURL, "kakao-user-url", c.KakaoUserURL, "Kakao user info endpoint")
	fs.StringSliceVar(&c.AdminEmails, "admin-emails", c.AdminEmails, "Comma separated admin emails")
	fs.StringVar(&c.Codec, "codec", c.Codec, "Storage value codec (json, cbor)")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// TokenSecrets returns explicitly set secrets, the missing ones are derived from master secret
func (c *Config) TokenSecrets() (access string, refresh string, err error) {
	access, refresh = c.AccessSecret, c.RefreshSecret
	if access != "" && refresh != "" {
		return access, refresh, nil
	}

	if c.SecretKey == "" {
		return "", "", errors.New("secret key or both access and refresh secrets required")
	}

	derivedAccess, derivedRefresh, err := tokenmanager.DeriveSecrets(c.SecretKey)
	if err != nil {
		return "", "", err
	}
	if access == "" {
		access = derivedAccess
	}
	if refresh == "" {
		refresh = derivedRefresh
	}

	return access, refresh, nil
}

func splitList(value string) []string {
	var items []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
