package models

import "time"

// RevokedToken is a denylist entry keyed by the token's jti. It is kept
// until the token would have expired anyway.
type RevokedToken struct {
	TokenID   string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
