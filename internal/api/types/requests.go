package types

import "encoding/json"

type ProjectCreateRequest struct {
	Name                 string          `json:"name" validate:"required"`
	RepoURL              string          `json:"repo_url" validate:"required,url"`
	DefaultBranch        string          `json:"default_branch"`
	Rules                json.RawMessage `json:"rules"`
	GithubInstallationID *int64          `json:"github_installation_id"`
}
