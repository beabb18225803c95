package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID    int64    `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Type  UserType `json:"type"`
}

// JWTClaims represents the JWT payload for access tokens. The core trusts
// Type for every role check; no credential re-verification happens past
// the middleware.
type JWTClaims struct {
	UserID int64    `json:"user_id"`
	Type   UserType `json:"type"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	jwt.RegisteredClaims
}
