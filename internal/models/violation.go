package models

import (
	"time"

	"github.com/google/uuid"
)

// Violation severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Violation is a single architecture-rule breach tied to one file path.
type Violation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ScanID     uuid.UUID `gorm:"type:uuid;index;not null" json:"scan_id" validate:"required"`
	NodePath   string    `gorm:"column:node_path;index;not null" json:"node_path" validate:"required"`
	RuleCode   string    `gorm:"column:rule_code;index;not null" json:"rule_code" validate:"required"`
	Severity   string    `gorm:"type:varchar(16);index;not null;default:'medium'" json:"severity" validate:"required,oneof=low medium high"`
	Details    string    `gorm:"type:text;not null" json:"details" validate:"required"`
	Suggestion string    `gorm:"type:text" json:"suggestion,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
