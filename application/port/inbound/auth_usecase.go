package inbound

import (
	"context"
)

type LoginRequest struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required,min=8"`
	RememberMe        bool   `json:"remember_me"`
	DeviceFingerprint string `json:"-"`
}

// LoginResult stays on the server side: the handler moves the tokens
// into cookies and only the profile and expiry reach the response body.
type LoginResult struct {
	AccessToken       string
	RefreshCredential string
	ExpiresIn         int
	RefreshExpiresIn  int
	User              UserProfile
}

type RefreshRequest struct {
	RefreshCredential string `json:"-"`
	DeviceFingerprint string `json:"-"`
}

type LogoutRequest struct {
	RefreshCredential string `json:"-"`
	UserID            string `json:"-"`
}

type UserProfile struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenantId,omitempty"`
	Roles    []string `json:"roles"`
}

type AuthUseCase interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Refresh(ctx context.Context, req RefreshRequest) (*LoginResult, error)
	Logout(ctx context.Context, req LogoutRequest) error
	Me(ctx context.Context, userID string) (*UserProfile, error)
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetComplete struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type EmailVerificationRequest struct {
	Token string `json:"token" validate:"required"`
}

// AccountUseCase covers the special-purpose token flows.
type AccountUseCase interface {
	// InitiatePasswordReset returns the minted reset token so the caller
	// can hand it to the mail pipeline. It never reveals whether the
	// email belongs to an account.
	InitiatePasswordReset(ctx context.Context, req PasswordResetRequest) (string, error)
	CompletePasswordReset(ctx context.Context, req PasswordResetComplete) error
	VerifyEmail(ctx context.Context, req EmailVerificationRequest) error
}
