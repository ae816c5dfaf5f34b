package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/archdrift/engine/internal/api/types"
	"github.com/archdrift/engine/internal/api/validators"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/repository"
	appErr "github.com/archdrift/engine/pkg/errors"
)

type ProjectsHandler struct {
	projects repository.ProjectRepository
	scans    repository.ScanRepository
}

func NewProjectsHandler(projects repository.ProjectRepository, scans repository.ScanRepository) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, scans: scans}
}

func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ProjectCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := validators.New().Struct(req); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return
	}

	p := models.Project{
		Name:                 req.Name,
		RepoURL:              req.RepoURL,
		DefaultBranch:        req.DefaultBranch,
		GithubInstallationID: req.GithubInstallationID,
	}
	if p.DefaultBranch == "" {
		p.DefaultBranch = "main"
	}
	if len(req.Rules) > 0 {
		p.Rules = datatypes.JSON(req.Rules)
	}

	if err := h.projects.Create(r.Context(), &p); err != nil {
		if appErr.IsCode(err, appErr.CodeAlreadyExists) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: p})
}

// projectDetail couples a project with its most recent scan for the read API.
type projectDetail struct {
	models.Project
	LatestScan *models.Scan `json:"latest_scan,omitempty"`
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}

	var p models.Project
	if err := h.projects.GetByID(r.Context(), id, &p); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	detail := projectDetail{Project: p}
	var latest models.Scan
	if err := h.scans.GetLatestByProject(r.Context(), id, &latest); err == nil {
		detail.LatestScan = &latest
	} else if !appErr.IsCode(err, appErr.CodeNotFound) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: detail})
}

func (h *ProjectsHandler) ListScans(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid project id")
		return
	}
	items, err := h.scans.ListByProject(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: types.FromAppError(err)})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}
