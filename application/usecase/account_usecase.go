package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vantra/vantra/application/port/inbound"
	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/infrastructure/service/logger"
)

var (
	ErrInvalidSpecialToken = errors.New("invalid or expired token")
	ErrWeakPassword        = errors.New("password does not meet requirements")
)

// AccountUseCase drives the special-purpose token flows: password
// reset and email verification.
type AccountUseCase struct {
	userRepository         outbound.UserRepository
	refreshTokenRepository outbound.RefreshTokenRepository
	tokenService           outbound.TokenService
	passwordService        inbound.PasswordService
	logger                 logger.Logger
	specialTokenTTL        time.Duration
}

func NewAccountUseCase(
	userRepo outbound.UserRepository,
	refreshTokenRepo outbound.RefreshTokenRepository,
	tokenService outbound.TokenService,
	passwordService inbound.PasswordService,
	log logger.Logger,
	specialTokenTTL time.Duration,
) inbound.AccountUseCase {
	return &AccountUseCase{
		userRepository:         userRepo,
		refreshTokenRepository: refreshTokenRepo,
		tokenService:           tokenService,
		passwordService:        passwordService,
		logger:                 log,
		specialTokenTTL:        specialTokenTTL,
	}
}

// InitiatePasswordReset mints a reset token for the account behind the
// email. Unknown emails return an empty token and no error, so the
// endpoint's behavior cannot be used to enumerate accounts.
func (uc *AccountUseCase) InitiatePasswordReset(ctx context.Context, req inbound.PasswordResetRequest) (string, error) {
	user, err := uc.userRepository.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			logger.LogAuthEvent(ctx, uc.logger, "password_reset_unknown_email", "", "", false, map[string]interface{}{
				"email": req.Email,
			})
			return "", nil
		}
		uc.logger.Error(ctx, "Failed to find user for password reset", err, map[string]interface{}{
			"email": req.Email,
		})
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	token, err := uc.tokenService.GenerateSpecialToken(user.ID, outbound.PurposePasswordReset, uc.specialTokenTTL)
	if err != nil {
		uc.logger.Error(ctx, "Failed to mint password reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return "", fmt.Errorf("failed to mint reset token: %w", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "password_reset_initiated", user.ID, "", true, nil)
	return token, nil
}

func (uc *AccountUseCase) CompletePasswordReset(ctx context.Context, req inbound.PasswordResetComplete) error {
	userID, err := uc.tokenService.ValidateSpecialToken(req.Token, outbound.PurposePasswordReset)
	if err != nil {
		logger.LogSecurityEvent(ctx, uc.logger, "password_reset_token_rejected", "MEDIUM", map[string]interface{}{
			"reason": err.Error(),
		})
		return ErrInvalidSpecialToken
	}

	if len(req.NewPassword) < 8 {
		return ErrWeakPassword
	}

	hashed, err := uc.passwordService.HashPassword(req.NewPassword)
	if err != nil {
		uc.logger.Error(ctx, "Failed to hash new password", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := uc.userRepository.UpdatePassword(ctx, userID, hashed); err != nil {
		uc.logger.Error(ctx, "Failed to update password", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Existing sessions are cut loose along with the old password.
	if err := uc.refreshTokenRepository.RevokeByUserID(ctx, userID); err != nil {
		uc.logger.Error(ctx, "Failed to revoke sessions after password reset", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "password_reset_completed", userID, "", true, nil)
	return nil
}

func (uc *AccountUseCase) VerifyEmail(ctx context.Context, req inbound.EmailVerificationRequest) error {
	userID, err := uc.tokenService.ValidateSpecialToken(req.Token, outbound.PurposeEmailVerification)
	if err != nil {
		logger.LogSecurityEvent(ctx, uc.logger, "email_verification_token_rejected", "MEDIUM", map[string]interface{}{
			"reason": err.Error(),
		})
		return ErrInvalidSpecialToken
	}

	if err := uc.userRepository.MarkEmailVerified(ctx, userID); err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return ErrInvalidSpecialToken
		}
		uc.logger.Error(ctx, "Failed to mark email verified", err, map[string]interface{}{
			"user_id": userID,
		})
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "email_verified", userID, "", true, nil)
	return nil
}
