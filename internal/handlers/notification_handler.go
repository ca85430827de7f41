package handlers

import (
	"net/http"

	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/repositories"
	"fieldserve-backend/pkg/utils"
)

type NotificationHandler struct {
	Repo *repositories.NotificationRepository
}

func NewNotificationHandler(repo *repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{Repo: repo}
}

// ListMine returns the caller's notification history, newest first
func (h *NotificationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	notifications, err := h.Repo.ListByUser(r.Context(), userID)
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if notifications == nil {
		notifications = []*models.Notification{}
	}
	utils.JSON(w, http.StatusOK, notifications)
}
