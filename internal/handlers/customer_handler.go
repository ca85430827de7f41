package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldserve-backend/internal/cache"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type CustomerHandler struct {
	Service *services.CustomerService
}

func NewCustomerHandler(s *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Service: s}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "customers")
	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	customer, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	customer, err := h.Service.Update(r.Context(), id, &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "customers")
	utils.JSON(w, http.StatusOK, customer)
}

// Dropdown serves the customer picker, cached in redis
func (h *CustomerHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	serveDropdown(w, r, "customers", h.Service.Dropdown)
}
