package handlers

import (
	"net/http"
	"strconv"

	"fieldserve-backend/internal/cache"
	"fieldserve-backend/internal/middleware"
	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type MachineHandler struct {
	Service  *services.MachineService
	Uploader AssetUploader
}

func NewMachineHandler(s *services.MachineService, uploader AssetUploader) *MachineHandler {
	return &MachineHandler{Service: s, Uploader: uploader}
}

// CreateMachine accepts multipart form data: name, model_number, description
// and an optional photo under "file".
func (h *MachineHandler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	photo, err := uploadOptionalPhoto(r, h.Uploader, "machines")
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	machine, err := h.Service.Create(r.Context(),
		r.FormValue("name"), r.FormValue("model_number"), r.FormValue("description"),
		photo, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "machines")
	utils.JSON(w, http.StatusCreated, machine)
}

func (h *MachineHandler) GetMachine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	machine, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, machine)
}

func (h *MachineHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, machines)
}

func (h *MachineHandler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photo, err := uploadOptionalPhoto(r, h.Uploader, "machines")
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	machine, err := h.Service.Update(r.Context(), id,
		r.FormValue("name"), r.FormValue("model_number"), r.FormValue("description"), photo)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "machines")
	utils.JSON(w, http.StatusOK, machine)
}

// Dropdown serves the machine picker, cached in redis
func (h *MachineHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	serveDropdown(w, r, "machines", h.Service.Dropdown)
}
