package queue

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
)

// TypeScanRepo is the asynq task type for repository scans.
const TypeScanRepo = "scan:repo"

// QueueScans is the queue scan tasks land on.
const QueueScans = "scans"

// ScanPayload is the task payload for a scheduled scan.
type ScanPayload struct {
	ProjectID string `json:"project_id"`
	Ref       string `json:"ref"`
}

// Scheduler enqueues scan tasks. Enqueue is fire-and-forget: at-least-once
// delivery and retry-on-failure belong to the queue infrastructure.
type Scheduler interface {
	ScheduleScan(ctx context.Context, projectID uuid.UUID, ref string) error
}

type asynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler(client *asynq.Client) Scheduler {
	return &asynqScheduler{client: client}
}

func (s *asynqScheduler) ScheduleScan(ctx context.Context, projectID uuid.UUID, ref string) error {
	payload, err := json.Marshal(ScanPayload{ProjectID: projectID.String(), Ref: ref})
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode scan payload failed")
	}

	task := asynq.NewTask(TypeScanRepo, payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.Queue(QueueScans))
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "enqueue scan task failed")
	}

	logger.L().Info("scan task enqueued",
		zap.String("task_id", info.ID),
		zap.String("project_id", projectID.String()),
		zap.String("ref", ref),
	)
	return nil
}
