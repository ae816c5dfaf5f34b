package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Project is a tracked repository registered for drift scanning.
// The rules document is opaque to the engine and forwarded verbatim
// to the analyzer.
type Project struct {
	ID                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name                 string         `gorm:"not null" json:"name" validate:"required"`
	RepoURL              string         `gorm:"column:repo_url;uniqueIndex;not null" json:"repo_url" validate:"required,url"`
	DefaultBranch        string         `gorm:"not null;default:'main'" json:"default_branch" validate:"required"`
	Rules                datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"rules"`
	GithubInstallationID *int64         `gorm:"index" json:"github_installation_id,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`

	Scans []Scan `gorm:"constraint:OnDelete:CASCADE" json:"scans,omitempty"`
}

// RulesDocument returns the rules as raw JSON, defaulting to an empty object.
func (p *Project) RulesDocument() datatypes.JSON {
	if len(p.Rules) == 0 {
		return datatypes.JSON([]byte(`{}`))
	}
	return p.Rules
}
