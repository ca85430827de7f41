package handlers

import (
	"encoding/json"
	"net/http"

	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"
)

type AuthHandler struct {
	Users *services.UserService
	TOTP  *services.TOTPService
}

func NewAuthHandler(users *services.UserService, totp *services.TOTPService) *AuthHandler {
	return &AuthHandler{Users: users, TOTP: totp}
}

// setSessionCookie mirrors the session token into an HttpOnly cookie for
// clients that prefer cookie transport over the Authorization header.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   24 * 60 * 60,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// SendOTP issues a login OTP to a registered mobile number
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Mobile == "" {
		utils.Error(w, http.StatusBadRequest, "mobile is required")
		return
	}

	if err := h.Users.SendOTP(r.Context(), req.Mobile); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

// Login exchanges a mobile+OTP pair for a session token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Mobile == "" || req.OTP == "" {
		utils.Error(w, http.StatusBadRequest, "mobile and otp are required")
		return
	}

	resp, err := h.Users.Login(r.Context(), req.Mobile, req.OTP)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	setSessionCookie(w, resp.Token)
	utils.JSON(w, http.StatusOK, resp)
}

// Logout clears the session cookie. Header-based clients just drop the token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	utils.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// DashboardLogin authenticates an email+password dashboard user
func (h *AuthHandler) DashboardLogin(w http.ResponseWriter, r *http.Request) {
	var req models.DashboardLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := h.Users.DashboardLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if resp.Token != "" {
		setSessionCookie(w, resp.Token)
	}
	utils.JSON(w, http.StatusOK, resp)
}

// VerifyTOTP completes a 2FA login
func (h *AuthHandler) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyTOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TempToken == "" || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "temp_token and code are required")
		return
	}

	resp, err := h.Users.VerifyTOTPLogin(r.Context(), req.TempToken, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	setSessionCookie(w, resp.Token)
	utils.JSON(w, http.StatusOK, resp)
}

// EnrollTOTP starts 2FA enrollment for the authenticated dashboard user
func (h *AuthHandler) EnrollTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	user, err := h.Users.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	url, err := h.TOTP.Enroll(r.Context(), userID, user.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"otpauth_url": url})
}

// ActivateTOTP enables 2FA once the user verifies a first code
func (h *AuthHandler) ActivateTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		utils.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.TOTP.Activate(r.Context(), userID, req.Code); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA enabled"})
}

// DisableTOTP removes the caller's 2FA enrollment
func (h *AuthHandler) DisableTOTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	if err := h.TOTP.Disable(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "2FA disabled"})
}
