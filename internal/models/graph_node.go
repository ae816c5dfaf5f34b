package models

import (
	"time"

	"github.com/google/uuid"
)

// GraphNode is a file (or module) in a scan's dependency graph, as reported
// by the analyzer. Paths are unique within a scan by convention only.
type GraphNode struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ScanID     uuid.UUID `gorm:"type:uuid;index;not null" json:"scan_id" validate:"required"`
	Path       string    `gorm:"index;not null" json:"path" validate:"required"`
	ModuleName string    `gorm:"column:module_name;not null" json:"module_name" validate:"required"`
	Layer      string    `gorm:"index;not null" json:"layer" validate:"required"`
	Lang       string    `gorm:"index;not null" json:"lang" validate:"required"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
