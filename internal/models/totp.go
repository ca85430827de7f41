package models

import "time"

// TOTPSecret holds a dashboard user's 2FA secret. Enabled only after the
// user has verified a first code against it.
type TOTPSecret struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Secret    string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// VerifyTOTPRequest carries the 6-digit code plus the temp token issued at
// login step 1
type VerifyTOTPRequest struct {
	TempToken string `json:"temp_token"`
	Code      string `json:"code"`
}
