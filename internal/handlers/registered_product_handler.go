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

type RegisteredProductHandler struct {
	Service *services.RegisteredProductService
}

func NewRegisteredProductHandler(s *services.RegisteredProductService) *RegisteredProductHandler {
	return &RegisteredProductHandler{Service: s}
}

func (h *RegisteredProductHandler) RegisterProduct(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRegisteredProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	product, err := h.Service.Register(r.Context(), &req, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "products")
	utils.JSON(w, http.StatusCreated, product)
}

func (h *RegisteredProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, product)
}

// ListProducts returns all registered products for back-office callers, or
// the caller's own products for customer-scoped users.
func (h *RegisteredProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if customerID, ok := middleware.GetCustomerIDFromContext(r.Context()); ok {
		products, err := h.Service.ListByCustomer(r.Context(), customerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, products)
		return
	}

	products, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, products)
}

func (h *RegisteredProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.UpdateRegisteredProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.Service.Update(r.Context(), id, &req)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "products")
	utils.JSON(w, http.StatusOK, product)
}

// Dropdown serves the product picker, cached in redis
func (h *RegisteredProductHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	serveDropdown(w, r, "products", h.Service.Dropdown)
}
