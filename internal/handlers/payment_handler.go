package handlers

import (
	"encoding/json"
	"net/http"

	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"
)

type PaymentHandler struct {
	Service *services.RazorpayService
}

func NewPaymentHandler(s *services.RazorpayService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// Status tells the client whether online payments are available and which
// key to initialize the checkout widget with.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"enabled": h.Service.IsConfigured(),
		"key_id":  h.Service.KeyID(),
	})
}

// CreateOrder raises a Razorpay order for a service request
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := h.Service.CreateOrder(r.Context(), &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, tx)
}

// VerifyPayment settles a checkout callback
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		utils.Error(w, http.StatusBadRequest, "order, payment and signature are required")
		return
	}

	tx, err := h.Service.VerifyPayment(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, tx)
}
