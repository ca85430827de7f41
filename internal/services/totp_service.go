package services

import (
	"context"

	"fieldserve-backend/internal/repositories"

	"github.com/pquerna/otp/totp"
)

// TOTPService manages TOTP 2FA enrollment for dashboard users
type TOTPService struct {
	TOTPRepo *repositories.TOTPRepository
	Issuer   string
}

func NewTOTPService(totpRepo *repositories.TOTPRepository, issuer string) *TOTPService {
	return &TOTPService{TOTPRepo: totpRepo, Issuer: issuer}
}

// Enroll generates a fresh secret for the user and returns the otpauth URL
// for the authenticator app. The secret stays disabled until Activate.
func (s *TOTPService) Enroll(ctx context.Context, userID int, accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", err
	}
	if err := s.TOTPRepo.Upsert(ctx, userID, key.Secret()); err != nil {
		return "", err
	}
	return key.URL(), nil
}

// Activate enables 2FA once the user proves they hold the secret
func (s *TOTPService) Activate(ctx context.Context, userID int, code string) error {
	secret, err := s.TOTPRepo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if secret == nil {
		return ErrNotFound
	}
	if !totp.Validate(code, secret.Secret) {
		return ErrInvalidCode
	}
	return s.TOTPRepo.Enable(ctx, userID)
}

// IsEnabled reports whether the user has an active 2FA enrollment
func (s *TOTPService) IsEnabled(ctx context.Context, userID int) (bool, error) {
	secret, err := s.TOTPRepo.GetByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return secret != nil && secret.Enabled, nil
}

// Verify checks a login code against the user's enabled secret
func (s *TOTPService) Verify(ctx context.Context, userID int, code string) error {
	secret, err := s.TOTPRepo.GetByUser(ctx, userID)
	if err != nil {
		return err
	}
	if secret == nil || !secret.Enabled {
		return ErrNotFound
	}
	if !totp.Validate(code, secret.Secret) {
		return ErrInvalidCode
	}
	return nil
}

// Disable removes the user's enrollment
func (s *TOTPService) Disable(ctx context.Context, userID int) error {
	return s.TOTPRepo.Delete(ctx, userID)
}
