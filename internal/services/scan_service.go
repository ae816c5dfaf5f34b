package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/archdrift/engine/internal/analyzer"
	"github.com/archdrift/engine/internal/models"
	"github.com/archdrift/engine/internal/repository"
	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/archdrift/engine/pkg/logger"
)

// ScanService materializes analyzer results as scan aggregates and serves
// the derived metrics view.
type ScanService interface {
	// Persist writes the scan and all of its children in one transaction.
	// Either the whole aggregate becomes visible or nothing does.
	Persist(ctx context.Context, project *models.Project, ref string, result *analyzer.Result) (*models.Scan, error)
	Metrics(ctx context.Context, scanID uuid.UUID) (*ScanMetrics, error)
}

// ScanMetrics is derived on every read from the persisted aggregate; it is
// never stored.
type ScanMetrics struct {
	DriftScore float64    `json:"drift_score"`
	Counts     ScanCounts `json:"counts"`
}

type ScanCounts struct {
	Nodes      int64 `json:"nodes"`
	Edges      int64 `json:"edges"`
	Violations int64 `json:"violations"`
}

type scanService struct {
	db       *gorm.DB
	scanRepo repository.ScanRepository
	validate *validator.Validate
}

func NewScanService(db *gorm.DB, scanRepo repository.ScanRepository) ScanService {
	return &scanService{
		db:       db,
		scanRepo: scanRepo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *scanService) Persist(ctx context.Context, project *models.Project, ref string, result *analyzer.Result) (*models.Scan, error) {
	scan, err := s.buildScan(project, ref, result)
	if err != nil {
		logger.L().Error("failed to persist scan results",
			zap.String("project_id", project.ID.String()),
			zap.String("ref", ref),
			zap.Error(err),
		)
		return nil, err
	}

	// Creating the scan with its association slices populated writes all
	// four tables inside the one transaction; the closure rolls back on any
	// error or panic.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(scan).Error
	})
	if err != nil {
		logger.L().Error("scan transaction failed",
			zap.String("project_id", project.ID.String()),
			zap.String("ref", ref),
			zap.Error(err),
		)
		return nil, appErr.Wrap(err, appErr.CodeInternal, "persist scan failed")
	}

	logger.L().Info("scan persisted",
		zap.String("scan_id", scan.ID.String()),
		zap.String("project_id", project.ID.String()),
		zap.Float64("drift_score", scan.DriftScore),
		zap.Int("nodes", len(scan.GraphNodes)),
		zap.Int("edges", len(scan.GraphEdges)),
		zap.Int("violations", len(scan.Violations)),
	)
	return scan, nil
}

// buildScan maps the analyzer result onto model structs and validates every
// row before anything touches the store. A single bad entry fails the whole
// aggregate.
func (s *scanService) buildScan(project *models.Project, ref string, result *analyzer.Result) (*models.Scan, error) {
	driftScore := 0.0
	if result.Metrics.DriftScore != nil {
		driftScore = *result.Metrics.DriftScore
	}

	scan := &models.Scan{
		ProjectID:  project.ID,
		GitSha:     ref,
		Mode:       models.ScanModeFull,
		DriftScore: driftScore,
	}
	if err := s.validate.Struct(scan); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "scan validation failed").
			WithMeta("field", firstFailedField(err))
	}

	for _, n := range result.Nodes {
		node := models.GraphNode{
			Path:       n.Path,
			ModuleName: n.ModuleName,
			Layer:      n.Layer,
			Lang:       n.Lang,
		}
		if err := s.validate.StructExcept(node, "ScanID"); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "graph node validation failed").
				WithMeta("field", firstFailedField(err))
		}
		scan.GraphNodes = append(scan.GraphNodes, node)
	}

	for _, e := range result.Edges {
		edge := models.GraphEdge{
			FromPath: e.FromPath,
			ToPath:   e.ToPath,
			EdgeType: e.EdgeType,
		}
		if err := s.validate.StructExcept(edge, "ScanID"); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "graph edge validation failed").
				WithMeta("field", firstFailedField(err))
		}
		scan.GraphEdges = append(scan.GraphEdges, edge)
	}

	for _, v := range result.Violations {
		violation := models.Violation{
			NodePath:   v.NodePath,
			RuleCode:   strings.ToUpper(v.RuleCode),
			Severity:   v.Severity,
			Details:    v.Details,
			Suggestion: v.Suggestion,
		}
		if err := s.validate.StructExcept(violation, "ScanID"); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "violation validation failed").
				WithMeta("field", firstFailedField(err))
		}
		scan.Violations = append(scan.Violations, violation)
	}

	return scan, nil
}

func (s *scanService) Metrics(ctx context.Context, scanID uuid.UUID) (*ScanMetrics, error) {
	var scan models.Scan
	if err := s.scanRepo.GetByID(ctx, scanID, &scan); err != nil {
		return nil, err
	}
	counts, err := s.scanRepo.CountChildren(ctx, scanID)
	if err != nil {
		return nil, err
	}
	return &ScanMetrics{
		DriftScore: scan.DriftScore,
		Counts: ScanCounts{
			Nodes:      counts.Nodes,
			Edges:      counts.Edges,
			Violations: counts.Violations,
		},
	}, nil
}

func firstFailedField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
