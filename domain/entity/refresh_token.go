package entity

import (
	"time"
)

type RefreshToken struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	Token             string     `json:"token"`
	DeviceFingerprint string     `json:"device_fingerprint,omitempty"`
	ExpiresAt         time.Time  `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
}

func NewRefreshToken(id, userID, token, deviceFingerprint string, expiresAt time.Time) *RefreshToken {
	now := time.Now()
	return &RefreshToken{
		ID:                id,
		UserID:            userID,
		Token:             token,
		DeviceFingerprint: deviceFingerprint,
		ExpiresAt:         expiresAt,
		CreatedAt:         now,
		RevokedAt:         nil,
	}
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) Revoke() {
	now := time.Now()
	rt.RevokedAt = &now
}
