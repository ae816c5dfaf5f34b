package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/queue"
	"github.com/archdrift/engine/internal/repository"
	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
)

// WebhooksHandler accepts push-style webhook deliveries and schedules scan
// tasks. It answers fast and never waits on the analyzer; the only side
// effect of a successful delivery is one enqueued task.
type WebhooksHandler struct {
	projects  repository.ProjectRepository
	scheduler queue.Scheduler
}

func NewWebhooksHandler(projects repository.ProjectRepository, scheduler queue.Scheduler) *WebhooksHandler {
	return &WebhooksHandler{projects: projects, scheduler: scheduler}
}

// pushEvent is the subset of a push payload the ingress cares about. The
// commit reference is "after" when present, else "head_commit.id".
type pushEvent struct {
	Repository struct {
		CloneURL string `json:"clone_url"`
	} `json:"repository"`
	After      string `json:"after"`
	HeadCommit *struct {
		ID string `json:"id"`
	} `json:"head_commit"`
}

func (e *pushEvent) ref() string {
	if e.After != "" {
		return e.After
	}
	if e.HeadCommit != nil {
		return e.HeadCommit.ID
	}
	return ""
}

// GitHub handles POST /webhooks/github. Response bodies are part of the
// webhook contract and are kept deliberately plain.
func (h *WebhooksHandler) GitHub(w http.ResponseWriter, r *http.Request) {
	// A malformed or adversarial delivery must never take the process down;
	// anything unexpected answers the generic 500 body.
	defer func() {
		if rec := recover(); rec != nil {
			logger.L().Error("webhook error", zap.Any("panic", rec))
			writeWebhookError(w, http.StatusInternalServerError, "Internal server error")
		}
	}()

	var event pushEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeWebhookError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	repoURL := event.Repository.CloneURL
	ref := event.ref()
	if repoURL == "" || ref == "" {
		writeWebhookError(w, http.StatusBadRequest, "Invalid webhook payload")
		return
	}

	var project models.Project
	if err := h.projects.GetByRepoURL(r.Context(), repoURL, &project); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			writeWebhookError(w, http.StatusNotFound, fmt.Sprintf("Project not found for repository: %s", repoURL))
			return
		}
		logger.L().Error("webhook error", zap.String("repo_url", repoURL), zap.Error(err))
		writeWebhookError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.scheduler.ScheduleScan(r.Context(), project.ID, ref); err != nil {
		logger.L().Error("webhook error", zap.String("repo_url", repoURL), zap.Error(err))
		writeWebhookError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeRawJSON(w, http.StatusOK, map[string]string{
		"status":  "scan_enqueued",
		"project": project.Name,
	})
}

func writeWebhookError(w http.ResponseWriter, status int, msg string) {
	writeRawJSON(w, status, map[string]string{"error": msg})
}

func writeRawJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
