package auth

import (
	"errors"
	"time"
)

// CookieName is the session cookie issued to authenticated browsers.
const CookieName = "blgwsession"

// Session is one issued browser session.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Sentinel errors for session operations.
var (
	ErrTokenInvalid = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session has expired")
	ErrTokenRevoked = errors.New("session has been revoked")
)
