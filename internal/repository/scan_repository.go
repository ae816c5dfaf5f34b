package repository

import (
	"context"

	"github.com/archdrift/engine/internal/models"
	appErr "github.com/archdrift/engine/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChildCounts carries the live row counts of a scan's persisted children.
type ChildCounts struct {
	Nodes      int64
	Edges      int64
	Violations int64
}

type ScanRepository interface {
	BaseRepository[models.Scan]
	GetWithChildren(ctx context.Context, scanID uuid.UUID, dest *models.Scan) error
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Scan, error)
	GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.Scan) error
	CountChildren(ctx context.Context, scanID uuid.UUID) (*ChildCounts, error)
}

type scanRepository struct {
	BaseRepository[models.Scan]
	db *gorm.DB
}

func NewScanRepository(db *gorm.DB) ScanRepository {
	return &scanRepository{BaseRepository: NewBaseRepository[models.Scan](db), db: db}
}

func (r *scanRepository) GetWithChildren(ctx context.Context, scanID uuid.UUID, dest *models.Scan) error {
	err := r.db.WithContext(ctx).
		Preload("GraphNodes").
		Preload("GraphEdges").
		Preload("Violations").
		First(dest, "id = ?", scanID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "scan not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get scan failed")
	}
	return nil
}

func (r *scanRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Scan, error) {
	var out []models.Scan
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list scans failed")
	}
	return out, nil
}

func (r *scanRepository) GetLatestByProject(ctx context.Context, projectID uuid.UUID, dest *models.Scan) error {
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").First(dest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return appErr.New(appErr.CodeNotFound, "no scans found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get latest scan failed")
	}
	return nil
}

// CountChildren issues live COUNT queries; metrics are never stored.
func (r *scanRepository) CountChildren(ctx context.Context, scanID uuid.UUID) (*ChildCounts, error) {
	var c ChildCounts
	if err := r.db.WithContext(ctx).Model(&models.GraphNode{}).Where("scan_id = ?", scanID).Count(&c.Nodes).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "count graph nodes failed")
	}
	if err := r.db.WithContext(ctx).Model(&models.GraphEdge{}).Where("scan_id = ?", scanID).Count(&c.Edges).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "count graph edges failed")
	}
	if err := r.db.WithContext(ctx).Model(&models.Violation{}).Where("scan_id = ?", scanID).Count(&c.Violations).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "count violations failed")
	}
	return &c, nil
}
