package handlers

import (
	"errors"
	"net/http"

	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"
)

// writeServiceError maps service sentinel errors onto HTTP status codes.
// Anything unrecognized is a 500 with a generic message so internals do not
// leak to clients.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(w, http.StatusNotFound, "record not found")
	case errors.Is(err, services.ErrDuplicate):
		utils.Error(w, http.StatusForbidden, "record already exists")
	case errors.Is(err, services.ErrInvalidStatus):
		utils.Error(w, http.StatusConflict, "operation not allowed in current status")
	case errors.Is(err, services.ErrInvalidCode):
		utils.Error(w, http.StatusBadRequest, "invalid confirmation code")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrOTPExpired):
		utils.Error(w, http.StatusUnauthorized, "OTP expired, request a new one")
	case errors.Is(err, services.ErrInactiveUser):
		utils.Error(w, http.StatusForbidden, "account is disabled")
	default:
		utils.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeValidationOrServiceError keeps plain validation messages client-visible
func writeValidationOrServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrDuplicate),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidCode),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrInactiveUser):
		writeServiceError(w, err)
	default:
		utils.Error(w, http.StatusBadRequest, err.Error())
	}
}
