package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/models"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ServiceRequestHandler struct {
	Service  *services.ServiceRequestService
	Uploader AssetUploader
}

func NewServiceRequestHandler(s *services.ServiceRequestService, uploader AssetUploader) *ServiceRequestHandler {
	return &ServiceRequestHandler{Service: s, Uploader: uploader}
}

// callerCustomerID returns the tenant scope pointer for customer-side users,
// nil for back-office callers.
func callerCustomerID(r *http.Request) *int {
	if customerID, ok := middleware.GetCustomerIDFromContext(r.Context()); ok {
		return &customerID
	}
	return nil
}

// CreateRequest opens a service request. Multipart form: "body" carries the
// JSON payload, "files" carries 1-5 attachments.
func (h *ServiceRequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var body models.CreateServiceRequestBody
	if err := json.Unmarshal([]byte(r.FormValue("body")), &body); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid body field")
		return
	}

	photos, videos, err := uploadAttachments(r, h.Uploader, "problems")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	request, err := h.Service.Create(r.Context(), &body, photos, videos, userID, callerCustomerID(r))
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, request)
}

// AssignEngineer moves a logged request to engineer_assigned
func (h *ServiceRequestHandler) AssignEngineer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req models.AssignEngineerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Engineer == 0 {
		utils.Error(w, http.StatusBadRequest, "engineer is required")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	request, err := h.Service.Assign(r.Context(), id, req.Engineer, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, request)
}

// HandleRequest attaches the engineer's solution. Multipart form mirrors
// CreateRequest: "body" JSON plus 1-5 "files" attachments.
func (h *ServiceRequestHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	var body models.HandleServiceRequestBody
	if err := json.Unmarshal([]byte(r.FormValue("body")), &body); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid body field")
		return
	}
	body.Request = id

	photos, videos, err := uploadAttachments(r, h.Uploader, "solutions")
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	request, err := h.Service.Handle(r.Context(), &body, photos, videos, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, request)
}

// CloseRequest settles a request against the customer's confirmation code
func (h *ServiceRequestHandler) CloseRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body models.CloseServiceRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Code == "" {
		utils.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	request, err := h.Service.Close(r.Context(), id, &body, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, request)
}

// ListRequests returns all requests for back-office callers, scoped to the
// caller's organization for customer-side users.
func (h *ServiceRequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	if customerID := callerCustomerID(r); customerID != nil {
		requests, err := h.Service.ListForCustomer(r.Context(), *customerID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		utils.JSON(w, http.StatusOK, requests)
		return
	}

	requests, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, requests)
}

// GetRequest returns the detailed view with problem and solution reports
func (h *ServiceRequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	detail, err := h.Service.GetDetailed(r.Context(), id, callerCustomerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, detail)
}
