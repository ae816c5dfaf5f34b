package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/archdrift/engine/internal/api/types"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/repository"
	"github.com/archdrift/engine/internal/services"
	appErr "github.com/archdrift/engine/pkg/errors"
)

type ScansHandler struct {
	scans   repository.ScanRepository
	scanSvc services.ScanService
}

func NewScansHandler(scans repository.ScanRepository, scanSvc services.ScanService) *ScansHandler {
	return &ScansHandler{scans: scans, scanSvc: scanSvc}
}

// scanDetail couples a scan aggregate with its derived metrics.
type scanDetail struct {
	models.Scan
	Metrics *services.ScanMetrics `json:"metrics"`
}

func (h *ScansHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid scan id")
		return
	}

	var scan models.Scan
	if err := h.scans.GetWithChildren(r.Context(), id, &scan); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	metrics, err := h.scanSvc.Metrics(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: scanDetail{Scan: scan, Metrics: metrics}})
}
