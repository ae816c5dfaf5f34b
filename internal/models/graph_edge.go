package models

import (
	"time"

	"github.com/google/uuid"
)

// GraphEdge is a directed dependency between two node paths. Edges reference
// paths by value, not by foreign key; a dangling edge is accepted as-is.
type GraphEdge struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ScanID    uuid.UUID `gorm:"type:uuid;index;not null" json:"scan_id" validate:"required"`
	FromPath  string    `gorm:"column:from_path;index;not null" json:"from_path" validate:"required"`
	ToPath    string    `gorm:"column:to_path;index;not null" json:"to_path" validate:"required"`
	EdgeType  string    `gorm:"column:edge_type;index;not null" json:"edge_type" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
