package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldserve-backend/internal/cache"
	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	Service *services.UserService
}

func NewUserHandler(s *services.UserService) *UserHandler {
	return &UserHandler{Service: s}
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Service.CreateUser(r.Context(), &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "engineers")
	utils.JSON(w, http.StatusCreated, user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	user, err := h.Service.GetUser(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.Service.UpdateUser(r.Context(), id, &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "engineers")
	utils.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListStaff(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

func (h *UserHandler) ListEngineers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListEngineers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, users)
}

// EngineerDropdown serves the assignment picker, cached in redis
func (h *UserHandler) EngineerDropdown(w http.ResponseWriter, r *http.Request) {
	serveDropdown(w, r, "engineers", h.Service.EngineerDropdown)
}

// UpdateFCMToken registers the caller's device push token
func (h *UserHandler) UpdateFCMToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	var req models.UpdateFCMTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FCMToken == "" {
		utils.Error(w, http.StatusBadRequest, "fcm_token is required")
		return
	}

	if err := h.Service.UpdateFCMToken(r.Context(), userID, req.FCMToken); err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"message": "token updated"})
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	user, err := h.Service.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}
