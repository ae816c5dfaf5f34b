package tasks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/archdrift/engine/internal/analyzer"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/queue"
	"github.com/archdrift/engine/internal/repository"
	"github.com/archdrift/engine/internal/services"
	"github.com/archdrift/engine/pkg/logger"
)

// ScanTaskHandler runs scheduled repository scans: load the project, call
// the analyzer, persist the result. Every error is logged and returned so
// asynq's retry policy governs redelivery; the handler performs no partial
// recovery itself.
type ScanTaskHandler struct {
	projectRepo repository.ProjectRepository
	analyzer    analyzer.Client
	scans       services.ScanService
}

func NewScanTaskHandler(projectRepo repository.ProjectRepository, client analyzer.Client, scans services.ScanService) *ScanTaskHandler {
	return &ScanTaskHandler{projectRepo: projectRepo, analyzer: client, scans: scans}
}

func (h *ScanTaskHandler) HandleScanRepo(ctx context.Context, t *asynq.Task) error {
	var p queue.ScanPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid scan task payload", zap.Error(err))
		return err
	}
	projectID, err := uuid.Parse(p.ProjectID)
	if err != nil {
		logger.L().Error("invalid project id in scan task", zap.Error(err))
		return err
	}

	var project models.Project
	if err := h.projectRepo.GetByID(ctx, projectID, &project); err != nil {
		logger.L().Error("scan failed: project not found",
			zap.String("project_id", p.ProjectID),
			zap.Error(err),
		)
		return err
	}

	logger.L().Info("starting scan",
		zap.String("project", project.Name),
		zap.String("ref", p.Ref),
	)

	result, err := h.analyzer.Analyze(ctx, &analyzer.Request{
		RepoURL: project.RepoURL,
		Ref:     p.Ref,
		Rules:   json.RawMessage(project.RulesDocument()),
	})
	if err != nil {
		logger.L().Error("scan failed: analyzer error",
			zap.String("project_id", p.ProjectID),
			zap.String("ref", p.Ref),
			zap.Error(err),
		)
		return err
	}

	scan, err := h.scans.Persist(ctx, &project, p.Ref, result)
	if err != nil {
		logger.L().Error("scan failed: persist error",
			zap.String("project_id", p.ProjectID),
			zap.String("ref", p.Ref),
			zap.Error(err),
		)
		return err
	}

	logger.L().Info("scan completed",
		zap.String("project", project.Name),
		zap.String("scan_id", scan.ID.String()),
		zap.Float64("drift_score", scan.DriftScore),
	)
	return nil
}
