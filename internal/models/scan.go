package models

import (
	"time"

	"github.com/google/uuid"
)

// Scan modes. Only full scans are produced by the ingestion pipeline today;
// incremental is reserved for diff-based analysis.
const (
	ScanModeFull        = "full"
	ScanModeIncremental = "incremental"
)

// Scan is one immutable snapshot of analysis results for a project at a
// specific commit reference. It is created exactly once per successful
// ingestion and has no update path.
type Scan struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id" validate:"required"`
	GitSha     string    `gorm:"column:git_sha;index;not null" json:"git_sha" validate:"required"`
	Mode       string    `gorm:"type:varchar(16);not null;default:'full'" json:"mode" validate:"required,oneof=full incremental"`
	DriftScore float64   `gorm:"type:decimal(3,2);not null;default:0.0" json:"drift_score" validate:"gte=0,lte=1"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	GraphNodes []GraphNode `gorm:"constraint:OnDelete:CASCADE" json:"graph_nodes,omitempty"`
	GraphEdges []GraphEdge `gorm:"constraint:OnDelete:CASCADE" json:"graph_edges,omitempty"`
	Violations []Violation `gorm:"constraint:OnDelete:CASCADE" json:"violations,omitempty"`
}
