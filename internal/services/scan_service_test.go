package services

import (
	"context"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/archdrift/engine/internal/analyzer"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/repository"
	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func newTestService() *scanService {
	return &scanService{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func floatPtr(v float64) *float64 { return &v }

func TestBuildScanMapsResult(t *testing.T) {
	s := newTestService()
	project := &models.Project{ID: uuid.New()}

	result := &analyzer.Result{
		Metrics: analyzer.Metrics{DriftScore: floatPtr(0.25)},
		Nodes: []analyzer.Node{
			{Path: "a.rb", ModuleName: "A", Layer: "controllers", Lang: "ruby"},
		},
		Violations: []analyzer.Violation{
			{NodePath: "a.rb", RuleCode: "x", Severity: "high", Details: "d"},
		},
	}

	scan, err := s.buildScan(project, "sha1", result)
	require.NoError(t, err)

	require.Equal(t, project.ID, scan.ProjectID)
	require.Equal(t, "sha1", scan.GitSha)
	require.Equal(t, models.ScanModeFull, scan.Mode)
	require.InDelta(t, 0.25, scan.DriftScore, 1e-9)
	require.Len(t, scan.GraphNodes, 1)
	require.Empty(t, scan.GraphEdges)
	require.Len(t, scan.Violations, 1)
	// rule codes are normalized upper-case
	require.Equal(t, "X", scan.Violations[0].RuleCode)
}

func TestBuildScanDefaultsDriftScore(t *testing.T) {
	s := newTestService()
	scan, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{})
	require.NoError(t, err)
	require.Zero(t, scan.DriftScore)
	require.Empty(t, scan.GraphNodes)
	require.Empty(t, scan.GraphEdges)
	require.Empty(t, scan.Violations)
}

func TestBuildScanRejectsOutOfRangeDriftScore(t *testing.T) {
	s := newTestService()
	for _, score := range []float64{1.5, -0.1} {
		_, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{
			Metrics: analyzer.Metrics{DriftScore: floatPtr(score)},
		})
		require.Error(t, err, "score %v", score)
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	}
}

func TestBuildScanRejectsIncompleteNode(t *testing.T) {
	s := newTestService()
	_, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{
		Nodes: []analyzer.Node{{Path: "a.rb", ModuleName: "A", Layer: "controllers"}}, // no lang
	})
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	var ae *appErr.AppError
	require.ErrorAs(t, err, &ae)
	require.Equal(t, "Lang", ae.Meta["field"])
}

func TestBuildScanRejectsIncompleteEdge(t *testing.T) {
	s := newTestService()
	_, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{
		Edges: []analyzer.Edge{{FromPath: "a.rb", ToPath: "b.rb"}}, // no edge type
	})
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestBuildScanRejectsBadSeverity(t *testing.T) {
	s := newTestService()
	_, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{
		Violations: []analyzer.Violation{
			{NodePath: "a.rb", RuleCode: "X", Severity: "critical", Details: "d"},
		},
	})
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestBuildScanAcceptsDanglingEdges(t *testing.T) {
	s := newTestService()
	scan, err := s.buildScan(&models.Project{ID: uuid.New()}, "sha1", &analyzer.Result{
		Edges: []analyzer.Edge{{FromPath: "a.rb", ToPath: "ghost.rb", EdgeType: "import"}},
	})
	require.NoError(t, err)
	require.Len(t, scan.GraphEdges, 1)
}

// metricsScanRepo is the subset mock for the metrics view.
type metricsScanRepo struct {
	mock.Mock
}

func (m *metricsScanRepo) Create(ctx context.Context, obj *models.Scan) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *metricsScanRepo) GetByID(ctx context.Context, id any, dest *models.Scan) error {
	args := m.Called(ctx, id, dest)
	return args.Error(0)
}

func (m *metricsScanRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *metricsScanRepo) GetWithChildren(ctx context.Context, scanID uuid.UUID, dest *models.Scan) error {
	args := m.Called(ctx, scanID, dest)
	return args.Error(0)
}

func (m *metricsScanRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Scan, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.Scan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *metricsScanRepo) GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.Scan) error {
	args := m.Called(ctx, projectID, dest)
	return args.Error(0)
}

func (m *metricsScanRepo) CountChildren(ctx context.Context, scanID uuid.UUID) (*repository.ChildCounts, error) {
	args := m.Called(ctx, scanID)
	if v := args.Get(0); v != nil {
		return v.(*repository.ChildCounts), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestMetricsDerivesLiveCounts(t *testing.T) {
	scanID := uuid.New()
	repo := new(metricsScanRepo)
	repo.On("GetByID", mock.Anything, scanID, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*models.Scan)
			dest.ID = scanID
			dest.DriftScore = 0.42
		}).
		Return(nil)
	repo.On("CountChildren", mock.Anything, scanID).
		Return(&repository.ChildCounts{Nodes: 3, Edges: 2, Violations: 1}, nil)

	svc := &scanService{scanRepo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
	m, err := svc.Metrics(context.Background(), scanID)
	require.NoError(t, err)

	require.InDelta(t, 0.42, m.DriftScore, 1e-9)
	require.EqualValues(t, 3, m.Counts.Nodes)
	require.EqualValues(t, 2, m.Counts.Edges)
	require.EqualValues(t, 1, m.Counts.Violations)
}

func TestMetricsUnknownScan(t *testing.T) {
	scanID := uuid.New()
	repo := new(metricsScanRepo)
	repo.On("GetByID", mock.Anything, scanID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "scan not found"))

	svc := &scanService{scanRepo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
	_, err := svc.Metrics(context.Background(), scanID)
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
