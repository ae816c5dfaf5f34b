package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/archdrift/engine/internal/analyzer"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/queue"
	"github.com/archdrift/engine/internal/services"
	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

// Mock implementations
type mockProjectRepository struct {
	mock.Mock
}

func (m *mockProjectRepository) Create(ctx context.Context, obj *models.Project) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id any, dest *models.Project) error {
	args := m.Called(ctx, id, dest)
	return args.Error(0)
}

func (m *mockProjectRepository) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProjectRepository) GetByRepoURL(ctx context.Context, repoURL string, dest *models.Project) error {
	args := m.Called(ctx, repoURL, dest)
	return args.Error(0)
}

func (m *mockProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]models.Project), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAnalyzerClient struct {
	mock.Mock
}

func (m *mockAnalyzerClient) Analyze(ctx context.Context, req *analyzer.Request) (*analyzer.Result, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*analyzer.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScanService struct {
	mock.Mock
}

func (m *mockScanService) Persist(ctx context.Context, project *models.Project, ref string, result *analyzer.Result) (*models.Scan, error) {
	args := m.Called(ctx, project, ref, result)
	if v := args.Get(0); v != nil {
		return v.(*models.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScanService) Metrics(ctx context.Context, scanID uuid.UUID) (*services.ScanMetrics, error) {
	args := m.Called(ctx, scanID)
	if v := args.Get(0); v != nil {
		return v.(*services.ScanMetrics), args.Error(1)
	}
	return nil, args.Error(1)
}

func scanTask(t *testing.T, projectID uuid.UUID, ref string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(queue.ScanPayload{ProjectID: projectID.String(), Ref: ref})
	require.NoError(t, err)
	return asynq.NewTask(queue.TypeScanRepo, payload)
}

func TestHandleScanRepoSuccess(t *testing.T) {
	projectID := uuid.New()

	repo := new(mockProjectRepository)
	repo.On("GetByID", mock.Anything, projectID, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*models.Project)
			dest.ID = projectID
			dest.Name = "sample"
			dest.RepoURL = "https://x/y.git"
		}).
		Return(nil)

	result := &analyzer.Result{}
	client := new(mockAnalyzerClient)
	client.On("Analyze", mock.Anything, mock.MatchedBy(func(req *analyzer.Request) bool {
		return req.RepoURL == "https://x/y.git" && req.Ref == "sha1"
	})).Return(result, nil)

	scan := &models.Scan{ID: uuid.New(), ProjectID: projectID, GitSha: "sha1", DriftScore: 0.25}
	svc := new(mockScanService)
	svc.On("Persist", mock.Anything, mock.Anything, "sha1", result).Return(scan, nil)

	h := NewScanTaskHandler(repo, client, svc)
	err := h.HandleScanRepo(context.Background(), scanTask(t, projectID, "sha1"))
	require.NoError(t, err)

	client.AssertExpectations(t)
	svc.AssertExpectations(t)
}

func TestHandleScanRepoProjectMissing(t *testing.T) {
	projectID := uuid.New()

	repo := new(mockProjectRepository)
	repo.On("GetByID", mock.Anything, projectID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "entity not found"))

	client := new(mockAnalyzerClient)
	svc := new(mockScanService)

	h := NewScanTaskHandler(repo, client, svc)
	err := h.HandleScanRepo(context.Background(), scanTask(t, projectID, "sha1"))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	client.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleScanRepoAnalyzerUnavailable(t *testing.T) {
	projectID := uuid.New()

	repo := new(mockProjectRepository)
	repo.On("GetByID", mock.Anything, projectID, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*models.Project)
			dest.ID = projectID
			dest.Name = "sample"
			dest.RepoURL = "https://x/y.git"
		}).
		Return(nil)

	client := new(mockAnalyzerClient)
	client.On("Analyze", mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeUnavailable, "analyzer service unavailable"))

	svc := new(mockScanService)

	h := NewScanTaskHandler(repo, client, svc)
	err := h.HandleScanRepo(context.Background(), scanTask(t, projectID, "sha1"))

	// the error propagates so the queue's retry policy takes over
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
	svc.AssertNotCalled(t, "Persist", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleScanRepoPersistFailure(t *testing.T) {
	projectID := uuid.New()

	repo := new(mockProjectRepository)
	repo.On("GetByID", mock.Anything, projectID, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*models.Project)
			dest.ID = projectID
			dest.RepoURL = "https://x/y.git"
		}).
		Return(nil)

	client := new(mockAnalyzerClient)
	client.On("Analyze", mock.Anything, mock.Anything).Return(&analyzer.Result{}, nil)

	svc := new(mockScanService)
	svc.On("Persist", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, appErr.New(appErr.CodeInvalid, "scan validation failed"))

	h := NewScanTaskHandler(repo, client, svc)
	err := h.HandleScanRepo(context.Background(), scanTask(t, projectID, "sha1"))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestHandleScanRepoBadPayload(t *testing.T) {
	h := NewScanTaskHandler(new(mockProjectRepository), new(mockAnalyzerClient), new(mockScanService))

	err := h.HandleScanRepo(context.Background(), asynq.NewTask(queue.TypeScanRepo, []byte("not json")))
	require.Error(t, err)

	err = h.HandleScanRepo(context.Background(), scanTaskRaw(`{"project_id":"not-a-uuid","ref":"sha1"}`))
	require.Error(t, err)
}

func scanTaskRaw(payload string) *asynq.Task {
	return asynq.NewTask(queue.TypeScanRepo, []byte(payload))
}
