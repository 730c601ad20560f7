package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vantra/vantra/application/port/inbound"
	"github.com/vantra/vantra/application/port/outbound"
	"github.com/vantra/vantra/domain/entity"
	"github.com/vantra/vantra/domain/valueobject"
	"github.com/vantra/vantra/infrastructure/service/logger"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrUserNotFound        = errors.New("user not found")
)

type AuthUseCase struct {
	userRepository         outbound.UserRepository
	refreshTokenRepository outbound.RefreshTokenRepository
	tokenService           outbound.TokenService
	passwordService        inbound.PasswordService
	logger                 logger.Logger
	accessTokenTTL         time.Duration
	refreshTokenTTL        time.Duration
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	refreshTokenRepo outbound.RefreshTokenRepository,
	tokenService outbound.TokenService,
	passwordService inbound.PasswordService,
	log logger.Logger,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) inbound.AuthUseCase {
	return &AuthUseCase{
		userRepository:         userRepo,
		refreshTokenRepository: refreshTokenRepo,
		tokenService:           tokenService,
		passwordService:        passwordService,
		logger:                 log,
		accessTokenTTL:         accessTokenTTL,
		refreshTokenTTL:        refreshTokenTTL,
	}
}

func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResult, error) {
	credentials, err := valueobject.NewCredentials(req.Email, req.Password)
	if err != nil {
		logger.LogAuthEvent(ctx, uc.logger, "login_validation_failed", "", "", false, map[string]interface{}{
			"email": req.Email,
			"error": err.Error(),
		})
		return nil, err
	}

	user, err := uc.userRepository.FindByEmail(ctx, credentials.Email())
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			logger.LogAuthEvent(ctx, uc.logger, "login_failed_user_not_found", "", "", false, map[string]interface{}{
				"email": req.Email,
			})
			return nil, ErrInvalidCredentials
		}
		uc.logger.Error(ctx, "Failed to find user", err, map[string]interface{}{
			"email": req.Email,
		})
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	isValid, err := uc.passwordService.VerifyPassword(credentials.Password(), user.Password)
	if err != nil {
		uc.logger.Error(ctx, "Password verification error", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("password verification failed")
	}
	if !isValid {
		logger.LogAuthEvent(ctx, uc.logger, "login_failed_invalid_password", user.ID, "", false, map[string]interface{}{
			"email": req.Email,
		})
		return nil, ErrInvalidCredentials
	}

	result, err := uc.issueSession(ctx, user, req.RememberMe, req.DeviceFingerprint)
	if err != nil {
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "login_success", user.ID, "", true, map[string]interface{}{
		"email": user.Email,
	})

	return result, nil
}

func (uc *AuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*inbound.LoginResult, error) {
	if req.RefreshCredential == "" {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := uc.refreshTokenRepository.FindByToken(ctx, req.RefreshCredential)
	if err != nil {
		if errors.Is(err, outbound.ErrRefreshTokenNotFound) {
			logger.LogSecurityEvent(ctx, uc.logger, "refresh_unknown_credential", "MEDIUM", nil)
			return nil, ErrInvalidRefreshToken
		}
		uc.logger.Error(ctx, "Failed to find refresh token", err, nil)
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	if stored.IsRevoked() {
		logger.LogSecurityEvent(ctx, uc.logger, "refresh_revoked_credential", "HIGH", map[string]interface{}{
			"user_id": stored.UserID,
		})
		return nil, ErrRefreshTokenRevoked
	}
	if stored.IsExpired() {
		return nil, ErrRefreshTokenExpired
	}

	user, err := uc.userRepository.FindByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		uc.logger.Error(ctx, "Failed to find user for refresh", err, map[string]interface{}{
			"user_id": stored.UserID,
		})
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Rotate: the presented credential is burned before a new one is
	// issued, so each refresh credential works at most once.
	if err := uc.refreshTokenRepository.Revoke(ctx, req.RefreshCredential); err != nil {
		uc.logger.Error(ctx, "Failed to revoke rotated refresh token", err, map[string]interface{}{
			"user_id": stored.UserID,
		})
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	result, err := uc.issueSession(ctx, user, true, req.DeviceFingerprint)
	if err != nil {
		return nil, err
	}

	logger.LogAuthEvent(ctx, uc.logger, "refresh_success", user.ID, "", true, nil)

	return result, nil
}

func (uc *AuthUseCase) Logout(ctx context.Context, req inbound.LogoutRequest) error {
	if req.RefreshCredential != "" {
		if err := uc.refreshTokenRepository.Revoke(ctx, req.RefreshCredential); err != nil && !errors.Is(err, outbound.ErrRefreshTokenNotFound) {
			uc.logger.Error(ctx, "Failed to revoke refresh token on logout", err, map[string]interface{}{
				"user_id": req.UserID,
			})
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	} else if req.UserID != "" {
		if err := uc.refreshTokenRepository.RevokeByUserID(ctx, req.UserID); err != nil {
			uc.logger.Error(ctx, "Failed to revoke refresh tokens on logout", err, map[string]interface{}{
				"user_id": req.UserID,
			})
			return fmt.Errorf("failed to revoke refresh tokens: %w", err)
		}
	}

	logger.LogAuthEvent(ctx, uc.logger, "logout", req.UserID, "", true, nil)
	return nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*inbound.UserProfile, error) {
	user, err := uc.userRepository.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return profileOf(user), nil
}

func (uc *AuthUseCase) issueSession(ctx context.Context, user *entity.User, rememberMe bool, deviceFingerprint string) (*inbound.LoginResult, error) {
	accessToken, err := uc.tokenService.GenerateAccessToken(outbound.TokenClaims{
		UserID:   user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
		Roles:    user.Roles,
	})
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshCredential, err := uc.tokenService.GenerateRefreshCredential()
	if err != nil {
		uc.logger.Error(ctx, "Failed to generate refresh credential", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("failed to generate refresh credential: %w", err)
	}

	refreshTTL := uc.refreshTokenTTL
	if !rememberMe {
		if refreshTTL >= (14 * 24 * time.Hour) {
			refreshTTL = 7 * 24 * time.Hour
		} else {
			refreshTTL = refreshTTL / 2
		}
	}

	refreshTokenEntity := entity.NewRefreshToken(
		uuid.NewString(),
		user.ID,
		refreshCredential,
		deviceFingerprint,
		time.Now().Add(refreshTTL),
	)

	if err := uc.refreshTokenRepository.Create(ctx, refreshTokenEntity); err != nil {
		uc.logger.Error(ctx, "Failed to store refresh credential", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, fmt.Errorf("failed to store refresh credential: %w", err)
	}

	return &inbound.LoginResult{
		AccessToken:       accessToken,
		RefreshCredential: refreshCredential,
		ExpiresIn:         int(uc.accessTokenTTL.Seconds()),
		RefreshExpiresIn:  int(refreshTTL.Seconds()),
		User:              *profileOf(user),
	}, nil
}

func profileOf(user *entity.User) *inbound.UserProfile {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return &inbound.UserProfile{
		ID:       user.ID,
		Email:    user.Email,
		TenantID: user.TenantID,
		Roles:    roles,
	}
}
