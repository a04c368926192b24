package models

import (
	"time"
)

// Claims carried by both access and refresh tokens
type Claims struct {
	ID        string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Session is the token pair handed to a client after login or rotation
type Session struct {
	UserID       string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
