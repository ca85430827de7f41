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

type SparePartHandler struct {
	Service  *services.SparePartService
	Uploader AssetUploader
}

func NewSparePartHandler(s *services.SparePartService, uploader AssetUploader) *SparePartHandler {
	return &SparePartHandler{Service: s, Uploader: uploader}
}

// CreateSparePart accepts multipart form data: name, part_number, description
// and an optional photo under "file".
func (h *SparePartHandler) CreateSparePart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())

	photo, err := uploadOptionalPhoto(r, h.Uploader, "spare-parts")
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	part, err := h.Service.Create(r.Context(),
		r.FormValue("name"), r.FormValue("part_number"), r.FormValue("description"),
		photo, userID)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "spare_parts")
	utils.JSON(w, http.StatusCreated, part)
}

func (h *SparePartHandler) GetSparePart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	part, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, part)
}

func (h *SparePartHandler) ListSpareParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, parts)
}

func (h *SparePartHandler) UpdateSparePart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	photo, err := uploadOptionalPhoto(r, h.Uploader, "spare-parts")
	if err != nil {
		utils.Error(w, http.StatusInternalServerError, "file upload failed")
		return
	}

	part, err := h.Service.Update(r.Context(), id,
		r.FormValue("name"), r.FormValue("part_number"), r.FormValue("description"), photo)
	if err != nil {
		writeValidationOrServiceError(w, err)
		return
	}

	cache.InvalidateEntity(r.Context(), "spare_parts")
	utils.JSON(w, http.StatusOK, part)
}

// Dropdown serves the spare part picker, cached in redis
func (h *SparePartHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	serveDropdown(w, r, "spare_parts", h.Service.Dropdown)
}
