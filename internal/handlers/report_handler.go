package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"fieldserve-backend/internal/services"
	"fieldserve-backend/pkg/utils"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(s *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: s}
}

// ServiceReport streams the PDF report for a service request
func (h *ReportHandler) ServiceReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid id")
		return
	}

	pdf, filename, err := h.Service.ServiceReportPDF(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(pdf)
}
