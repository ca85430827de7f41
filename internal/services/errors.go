package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// Sentinel errors handlers map onto HTTP status codes
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("record already exists")
	ErrInvalidStatus      = errors.New("operation not allowed in current status")
	ErrInvalidCode        = errors.New("invalid confirmation code")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user account is disabled")
	ErrOTPExpired         = errors.New("OTP expired or not requested")
	ErrTOTPRequired       = errors.New("TOTP verification required")
)

// mapNoRows converts the driver's empty-result error into ErrNotFound
func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
